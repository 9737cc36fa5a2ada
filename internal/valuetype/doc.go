/*
Package valuetype defines the value-type universe of the target execution
environment: the named types a node port may carry.

Every type is backed by a cty.Type, which is what values flowing through ports
are represented as. The universe distinguishes types the target environment
treats as different even when cty does not (e.g. `int` and `float` are both
cty.Number, but only the former accepts whole numbers).

Type variables (`Var("T")`) model generic parameters. A port typed by a
variable is only valid when a type-constraint marker narrows the variable to a
set of concrete types from the universe.
*/
package valuetype
