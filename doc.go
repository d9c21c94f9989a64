/*
Package invoke marks methods as entry points to be called by a generic invoker,
and records the type each of them is declared to return.

A method is marked in source with a comment directly above its declaration:

	// +invoke:method
	func (j *Job) Run(ctx context.Context) error

	// +invoke:method:returnType=int
	func (c *Counter) Next() int

The return type defaults to any (AnyObject). The marker is only valid on
methods; invokectl reports it on functions, types, fields and package clauses.

At runtime the marked methods live in a Registry, filled by the code that
invokectl generates or by calls to Register. An Invoker looks a component up,
calls its method, and optionally checks the result against the declared type.
*/
package invoke
