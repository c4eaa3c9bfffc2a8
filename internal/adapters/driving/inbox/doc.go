// Package inbox applies index files dropped into a directory.
//
// File names encode the target repository and the kind of index:
//
//	12-full-1700000000000.json        full index for repository 12, entry version 1700000000000
//	12-diff-1690000000000-1700000000000.json  diff for repository 12 against timestamp 1690000000000
//
// Applied files are moved to done/, anything else to failed/.
package inbox
