package blob

import (
	"context"
	"path/filepath"
	"testing"
)

func TestOpenDrivers(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "archive")
	cases := []struct {
		name string
		cfg  Config
		want Driver
	}{
		{name: "default", cfg: Config{FSRoot: dir}, want: DriverFilesystem},
		{name: "filesystem", cfg: Config{Driver: DriverFilesystem, FSRoot: dir}, want: DriverFilesystem},
		{name: "memory", cfg: Config{Driver: DriverMemory}, want: DriverMemory},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store, err := Open(ctx, tc.cfg)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			if store.Driver() != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, store.Driver())
			}
		})
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Config{Driver: "tape"}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestOpenS3RequiresBucket(t *testing.T) {
	store, err := Open(context.Background(), Config{Driver: DriverS3})
	if err == nil || store != nil {
		t.Fatalf("expected bucket error and nil store, got %v %v", store, err)
	}
}
