// Package builtin provides the functions available inside {{...}} templates
// used by request paths and expense payload fixtures.
//
// Available functions:
//   - uuid(): Random UUID v4
//   - now(): Current UTC time in RFC 3339
//   - timestamp(): Current Unix timestamp
//   - date([format], [offsetDays]): Current UTC date, optionally shifted
//   - amount([min], [max]): Random monetary amount with two decimals
//   - random([min], [max]): Random integer in range
//   - randomString([length]): Random alphanumeric string
//   - dayOfMonth(): Random day between 1 and 28
//
// Functions are invoked using the {{functionName(args)}} syntax.
package builtin
