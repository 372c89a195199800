package storage_test

import (
	"os"
	"path/filepath"
	"testing"
)

// chromeFixture is a minimal Chrome Bookmarks file.
const chromeFixture = `{
   "checksum": "a23a55e10d449d40dccaabe353357dbe",
   "roots": {
      "bookmark_bar": {
         "children": [ {
            "date_added": "13350000000000000",
            "date_last_used": "13360000000000000",
            "guid": "00000000-0000-4000-a000-000000000005",
            "id": "5",
            "name": "GitHub",
            "type": "url",
            "url": "https://github.com"
         }, {
            "children": [ {
               "date_added": "13350000000000000",
               "date_last_used": "0",
               "guid": "00000000-0000-4000-a000-000000000007",
               "id": "7",
               "name": "Go ✓",
               "type": "url",
               "url": "https://go.dev"
            } ],
            "date_added": "13350000000000000",
            "date_modified": "13350000000000000",
            "guid": "00000000-0000-4000-a000-000000000006",
            "id": "6",
            "name": "Dev",
            "type": "folder"
         } ],
         "date_added": "13340000000000000",
         "date_modified": "13350000000000000",
         "guid": "0bc5d13f-2cba-5d74-951f-3f233fe6c908",
         "id": "1",
         "name": "Bookmarks bar",
         "type": "folder"
      },
      "other": {
         "children": [ {
            "date_added": "13350000000000000",
            "guid": "00000000-0000-4000-a000-000000000008",
            "id": "8",
            "name": "HN",
            "type": "url",
            "url": "https://news.ycombinator.com"
         } ],
         "date_added": "13340000000000000",
         "date_modified": "0",
         "guid": "82b081ec-3dd3-529c-8475-ab6c344590dd",
         "id": "2",
         "name": "Other bookmarks",
         "type": "folder"
      },
      "synced": {
         "children": [  ],
         "date_added": "13340000000000000",
         "date_modified": "0",
         "guid": "4cf2e351-0e85-532b-bb37-df045d8f8d0f",
         "id": "3",
         "name": "Mobile bookmarks",
         "type": "folder"
      }
   },
   "version": 1
}
`

// writeChromeFixture writes chromeFixture into a temp dir and returns its path.
func writeChromeFixture(t *testing.T) string {
	t.Helper()
	return writeChromeFile(t, chromeFixture)
}

func writeChromeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Bookmarks")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}
