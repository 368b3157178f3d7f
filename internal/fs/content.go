package fs

import (
	"context"

	"github.com/dshills/chunkgraph/internal/tasks"
	"github.com/dshills/chunkgraph/pkg/types"
)

// ReadOp is the task operation under which file reads are memoized. Its
// subject is the path string, so watchers can invalidate single files.
const ReadOp = "read"

// ReadContent reads p through the task engine carried by ctx
func ReadContent(ctx context.Context, fsys FileSystem, p types.FileSystemPath) (types.AssetContent, error) {
	return tasks.Memo(ctx, tasks.NewKey(ReadOp, p.String()), func(ctx context.Context) (types.AssetContent, error) {
		data, err := fsys.Read(ctx, p)
		if err != nil {
			return types.AssetContent{}, err
		}
		return types.AssetContent{Bytes: data}, nil
	})
}
