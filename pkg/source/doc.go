// Package source describes where form documents come from (a file, an entry
// in an fs.FS, or an HTTP URL) and the Loader contract that fetches them.
// The default Loader lives in internal/loader.
package source
