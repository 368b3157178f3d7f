// Package resolve maps import specifiers to files.
//
// Relative specifiers ("./a", "../b") resolve against the importing
// module's directory, absolute ones ("/lib/a") against the file system root
// and bare ones ("react", "lodash/fp") against node_modules directories from
// the importing directory up to the root.
//
// A candidate resolves as a file when it exists as is or with one of the
// configured extensions appended. Otherwise it resolves as a directory
// through the "main" field of its package.json, then through index files.
//
// Results are memoized with the task engine carried by the context under
// the "resolve" operation, so watchers can drop them when files appear or
// disappear.
package resolve
