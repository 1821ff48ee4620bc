package flexdb

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// DefaultCopyPageSize is used by CopyCollection when pageSize is not positive.
const DefaultCopyPageSize = 50

// CopyCollection copies every document of src into dst, one page at a time.
// Copies get new ids in dst; the source id is dropped. Listing errors stop the
// copy, while per-document failures are collected and returned together.
// It returns the number of documents copied.
func CopyCollection(ctx context.Context, src, dst *Collection, pageSize int) (int, error) {
	if src.store.ID == dst.store.ID && src.name == dst.name {
		return 0, &ValidationError{Err: fmt.Errorf("source and destination are the same collection %q", src.name)}
	}
	if pageSize <= 0 {
		pageSize = DefaultCopyPageSize
	}

	var (
		result *multierror.Error
		copied int
	)
	for page := 1; ; page++ {
		docs, err := src.GetMany(ctx, Page(page), Limit(pageSize))
		if err != nil {
			return copied, fmt.Errorf("flexdb: list %s page %d: %w", src.Name(), page, err)
		}

		for _, doc := range docs {
			data := make(Document, len(doc))
			for k, v := range doc {
				if k != "id" {
					data[k] = v
				}
			}
			if _, err := dst.Create(ctx, data); err != nil {
				result = multierror.Append(result, fmt.Errorf("copy document %q: %w", doc.ID(), err))
				continue
			}
			copied++
		}

		if len(docs) < pageSize {
			break
		}
	}
	return copied, result.ErrorOrNil()
}
