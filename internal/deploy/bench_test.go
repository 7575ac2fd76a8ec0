package deploy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"objdeploy/internal/storage"
)

type nopSession struct{}

func (nopSession) UseContainer(context.Context, string) error { return nil }
func (nopSession) Exec(context.Context, string) (storage.ExecResult, error) {
	return storage.ExecResult{}, nil
}
func (nopSession) Close() error { return nil }

// BenchmarkDeploy measures the orchestration path (file read, decode,
// header parse, split, pool dispatch, report append) against an in-memory
// session, without any driver I/O.
//
// Run with:
//
//	go test ./internal/deploy -run=^$ -bench ^BenchmarkDeploy$ -benchmem
func BenchmarkDeploy(b *testing.B) {
	dir := b.TempDir()
	body := `CREATE VIEW "SALES"."V_%03d" AS
SELECT o.id, o.amount -- running total; not a delimiter
FROM orders o WHERE o.note <> 'a;b';
GRANT SELECT ON "SALES"."V_%03d" TO ROLE analyst;
`
	paths := make([]string, 200)
	for i := range paths {
		paths[i] = filepath.Join(dir, fmt.Sprintf("v_%03d.sql", i))
		if err := os.WriteFile(paths[i], []byte(fmt.Sprintf(body, i, i)), 0o644); err != nil {
			b.Fatal(err)
		}
	}

	for _, workers := range []int{1, 5, 20} {
		b.Run(fmt.Sprintf("workers=%d", workers), func(b *testing.B) {
			d := New(nopSession{}, Options{Workers: workers})
			b.ResetTimer()
			for range b.N {
				rep := d.Deploy(context.Background(), paths, nil)
				if rep.Len() != len(paths) {
					b.Fatalf("got %d results, want %d", rep.Len(), len(paths))
				}
			}
		})
	}
}
