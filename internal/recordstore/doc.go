// Package recordstore persists the dedup keys of every payment record that
// has been uploaded successfully. The on-disk format is a JSON array of key
// strings, rewritten wholesale on each save; the set only grows.
package recordstore
