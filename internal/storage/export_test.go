package storage

// Test hooks for the internal checksum.
var ChromeChecksumOf = func(path string) (stored, computed string, err error) {
	s := NewChromeStore(path)
	f, err := s.load()
	if err != nil {
		return "", "", err
	}
	return f.Checksum, chromeChecksum(&f.Roots), nil
}
