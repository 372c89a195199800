package storage

import (
	"crypto/md5"
	"encoding/hex"
	"hash"
	"unicode/utf16"
)

// chromeChecksum computes the MD5 checksum Chrome stores alongside the roots.
// Nodes are hashed depth-first in file order: id, title as UTF-16LE, then
// "url" + URL for bookmarks or "folder" for folders.
func chromeChecksum(roots *chromeRoots) string {
	h := md5.New()
	for _, r := range roots.all() {
		checksumNode(h, r)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func checksumNode(h hash.Hash, n *chromeNode) {
	h.Write([]byte(n.ID))
	h.Write(utf16LE(n.Name))
	if n.Type == "url" {
		h.Write([]byte("url"))
		h.Write([]byte(n.URL))
		return
	}
	h.Write([]byte("folder"))
	for i := range n.children() {
		checksumNode(h, &(*n.Children)[i])
	}
}

func utf16LE(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, 0, len(units)*2)
	for _, u := range units {
		out = append(out, byte(u), byte(u>>8))
	}
	return out
}
