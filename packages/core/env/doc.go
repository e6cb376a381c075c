// Package env resolves {{...}} placeholders in request paths, headers and
// payload templates.
//
// A placeholder is resolved, in order, as:
//   - an OS environment variable when written {{$NAME}}
//   - a builtin function call such as {{uuid()}} or {{date("2006-01-02", 7)}}
//   - a value captured from an earlier response ({{createGasto.id}} or {{id}})
//   - a user-defined variable
//
// Unresolved placeholders are left untouched and reported through WarnFunc.
package env
