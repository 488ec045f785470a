package importer

import (
	"regexp"

	"github.com/sirupsen/logrus"

	"github.com/user/rainhub/internal/raindrop"
)

// dupScanPageSize is the fixed page size for the destination scan.
const dupScanPageSize = 50

// tweetURLPattern recovers the tweet ID embedded in a stored bookmark URL.
// Both the twitter.com and x.com hosts appear in older libraries.
var tweetURLPattern = regexp.MustCompile(`(?:twitter\.com|x\.com)/[^/]+/status/(\d+)`)

// Lister is the slice of the destination client the duplicate scan needs.
type Lister interface {
	Raindrops(collectionID int64, page, perPage int, search string) ([]raindrop.Raindrop, error)
}

// ScanExistingIDs pages through the destination collection and extracts the
// external tweet IDs already present, so a fresh run does not re-import
// them. A short page ends the scan; maxPages bounds it against runaway
// pagination. Duplicates in the result are harmless.
func ScanExistingIDs(lister Lister, collectionID int64, maxPages int, log logrus.FieldLogger) ([]string, error) {
	var ids []string

	for page := 0; ; page++ {
		if page >= maxPages {
			log.WithFields(logrus.Fields{
				"collection_id": collectionID,
				"max_pages":     maxPages,
			}).Warn("duplicate scan hit page cap, later duplicates may be re-imported")
			break
		}

		items, err := lister.Raindrops(collectionID, page, dupScanPageSize, "")
		if err != nil {
			return nil, err
		}

		for _, item := range items {
			if m := tweetURLPattern.FindStringSubmatch(item.Link); m != nil {
				ids = append(ids, m[1])
			}
		}

		if len(items) < dupScanPageSize {
			break
		}
	}

	return ids, nil
}
