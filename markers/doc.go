/*
Package markers parses "marker comments" from Go source code.

Marker comments start with `// +` and attach metadata to the declaration
they document. The package is used by the discovery scanner to find
methods marked for invocation, but any marker can be registered.

# Basic Usage

	registry := markers.NewRegistry()
	registry.MustRegister(markers.MethodToInvokeName, markers.DescribesMethod, markers.MethodToInvoke{}, "")

	collector := markers.NewCollector(registry)
	values, err := collector.ParseFile("orders.go")

# Marker Syntax

	// +prefix:name
	// +prefix:name=value
	// +prefix:name:key=value,key2=value2

Examples:

	// +invoke:method
	// +invoke:method:returnType=int
	// +invoke:method:returnType="map[string]int"

# Supported Argument Types

- Strings: `name="value"` or `name=value`
- Integers: `count=42`
- Booleans: `enabled=true`
- Slices: `items={val1,val2,val3}` or `items=val1;val2;val3`
- Maps: `config={key1:value1,key2:value2}`

# Target Types

- DescribesPackage: file doc comment
- DescribesType: type declarations
- DescribesField: struct fields
- DescribesValue: var and const declarations
- DescribesFunc: functions without receiver
- DescribesMethod: methods

A registered marker found on a target its definition does not allow is
reported as a *MisplacedMarkerError.
*/
package markers
