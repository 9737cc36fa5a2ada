// internal/menupath/doc.go

/*
Package menupath provides a structured representation for node menu paths,
based on the canonical format `segment/segment/.../leaf`.

Segments define category nesting in the editor menu; the last segment is the
node's own display name. Leading, trailing and repeated separators are
rejected, as are segments consisting only of whitespace.

This package centralizes all formatting and parsing logic so the schema
builder and the category index agree on what a path means.
*/
package menupath
