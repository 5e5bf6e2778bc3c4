package selfupdate

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetNameFor(t *testing.T) {
	tests := []struct {
		goos   string
		goarch string
		want   string // empty means an error is expected
	}{
		{"darwin", "amd64", "nanochat_Darwin_all.tar.gz"},
		{"darwin", "arm64", "nanochat_Darwin_all.tar.gz"},
		{"linux", "amd64", "nanochat_Linux_x86_64.tar.gz"},
		{"linux", "arm64", "nanochat_Linux_arm64.tar.gz"},
		{"linux", "386", "nanochat_Linux_i386.tar.gz"},
		{"windows", "amd64", "nanochat_Windows_x86_64.zip"},
		{"windows", "arm64", "nanochat_Windows_arm64.zip"},
		{"freebsd", "amd64", ""},
		{"linux", "mips", ""},
	}

	for _, tt := range tests {
		t.Run(tt.goos+"/"+tt.goarch, func(t *testing.T) {
			got, err := assetNameFor(tt.goos, tt.goarch)
			if tt.want == "" {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseChecksums(t *testing.T) {
	t.Run("goreleaser format", func(t *testing.T) {
		input := "1a2b3c  nanochat_Darwin_all.tar.gz\n4d5e6f  nanochat_Linux_x86_64.tar.gz\n"
		got := parseChecksums([]byte(input))
		assert.Equal(t, map[string]string{
			"nanochat_Darwin_all.tar.gz":   "1a2b3c",
			"nanochat_Linux_x86_64.tar.gz": "4d5e6f",
		}, got)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, parseChecksums(nil))
	})

	t.Run("skips lines that are not digest plus name", func(t *testing.T) {
		input := "1a2b3c  good.tar.gz\njunk\n  \nthree  part  line\n4d5e6f  also-good.tar.gz\n"
		got := parseChecksums([]byte(input))
		assert.Equal(t, map[string]string{
			"good.tar.gz":      "1a2b3c",
			"also-good.tar.gz": "4d5e6f",
		}, got)
	})
}

func TestVerifyChecksum(t *testing.T) {
	data := []byte("release archive bytes")
	sum := sha256.Sum256(data)

	assert.NoError(t, verifyChecksum(data, hex.EncodeToString(sum[:])))

	err := verifyChecksum(data, strings.Repeat("0", 64))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrChecksum)
}

func TestExtractBinary(t *testing.T) {
	content := []byte("#!/bin/sh\necho nanochat")

	t.Run("tar.gz", func(t *testing.T) {
		got, err := extractBinary(buildTarGz(t, "nanochat", content), "nanochat_Darwin_all.tar.gz")
		require.NoError(t, err)
		assert.Equal(t, content, got)
	})

	t.Run("zip", func(t *testing.T) {
		got, err := extractBinary(buildZip(t, "nanochat.exe", content), "nanochat_Windows_x86_64.zip")
		require.NoError(t, err)
		assert.Equal(t, content, got)
	})

	t.Run("binary missing from archive", func(t *testing.T) {
		_, err := extractBinary(buildTarGz(t, "README.md", content), "nanochat_Darwin_all.tar.gz")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})
}

func TestApplyUpdate(t *testing.T) {
	newData := []byte("new-binary-content")
	sum := sha256.Sum256(newData)

	t.Run("replaces binary and keeps its mode", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "nanochat")
		require.NoError(t, os.WriteFile(target, []byte("old"), 0755))

		require.NoError(t, applyUpdate(newData, target, sum[:]))

		got, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.Equal(t, newData, got)

		info, err := os.Stat(target)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0755), info.Mode().Perm())
	})

	t.Run("rejects a hash mismatch and leaves the target alone", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "nanochat")
		require.NoError(t, os.WriteFile(target, []byte("old"), 0755))

		wrong := sha256.Sum256([]byte("something else"))
		err := applyUpdate(newData, target, wrong[:])
		assert.ErrorIs(t, err, ErrChecksum)

		got, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.Equal(t, []byte("old"), got)
	})
}

func TestUpdate(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fixture archive is tar.gz; windows release assets are zip")
	}

	asset, err := assetNameFor(runtime.GOOS, runtime.GOARCH)
	require.NoError(t, err)

	binary := []byte("new-nanochat-binary")
	archive := buildTarGz(t, "nanochat", binary)
	archiveSum := sha256.Sum256(archive)
	checksums := []byte(fmt.Sprintf("%s  %s\n", hex.EncodeToString(archiveSum[:]), asset))

	t.Run("happy path", func(t *testing.T) {
		execPath := filepath.Join(t.TempDir(), "nanochat")
		require.NoError(t, os.WriteFile(execPath, []byte("old"), 0755))

		server := releaseServer(t, "v2.0.0", asset, archive, checksums)
		checker := NewChecker(
			WithBaseURL(server.URL),
			WithDownloadBaseURL(server.URL),
			withExecPath(func() (string, error) { return execPath, nil }),
		)

		var stages []string
		err := checker.Update(context.Background(), &UpdateInput{CurrentVersion: "v1.0.0"}, func(p UpdateProgress) {
			stages = append(stages, p.Stage)
		})
		require.NoError(t, err)

		got, err := os.ReadFile(execPath)
		require.NoError(t, err)
		assert.Equal(t, binary, got)
		assert.Equal(t, []string{"check", "download", "verify", "extract", "apply", "done"}, stages)
	})

	t.Run("pinned target version skips the latest check", func(t *testing.T) {
		execPath := filepath.Join(t.TempDir(), "nanochat")
		require.NoError(t, os.WriteFile(execPath, []byte("old"), 0755))

		server := releaseServer(t, "v1.5.0", asset, archive, checksums)
		checker := NewChecker(
			WithBaseURL(server.URL),
			WithDownloadBaseURL(server.URL),
			withExecPath(func() (string, error) { return execPath, nil }),
		)

		var stages []string
		err := checker.Update(context.Background(), &UpdateInput{
			CurrentVersion: "v1.0.0",
			TargetVersion:  "v1.5.0",
		}, func(p UpdateProgress) {
			stages = append(stages, p.Stage)
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"download", "verify", "extract", "apply", "done"}, stages)
	})

	t.Run("dev build", func(t *testing.T) {
		checker := NewChecker()
		err := checker.Update(context.Background(), &UpdateInput{CurrentVersion: "(devel)"}, func(UpdateProgress) {})
		assert.ErrorIs(t, err, ErrDevBuild)
	})

	t.Run("already latest", func(t *testing.T) {
		server := releaseServer(t, "v1.0.0", asset, nil, nil)
		checker := NewChecker(WithBaseURL(server.URL))
		err := checker.Update(context.Background(), &UpdateInput{CurrentVersion: "v1.0.0"}, func(UpdateProgress) {})
		assert.ErrorIs(t, err, ErrAlreadyLatest)
	})

	t.Run("checksum mismatch", func(t *testing.T) {
		bad := []byte(fmt.Sprintf("%s  %s\n", strings.Repeat("0", 64), asset))
		server := releaseServer(t, "v2.0.0", asset, archive, bad)
		checker := NewChecker(
			WithBaseURL(server.URL),
			WithDownloadBaseURL(server.URL),
		)
		err := checker.Update(context.Background(), &UpdateInput{CurrentVersion: "v1.0.0"}, func(UpdateProgress) {})
		assert.ErrorIs(t, err, ErrChecksum)
	})

	t.Run("download failure", func(t *testing.T) {
		server := releaseServer(t, "v2.0.0", asset, nil, nil)
		checker := NewChecker(
			WithBaseURL(server.URL),
			WithDownloadBaseURL(server.URL),
		)
		err := checker.Update(context.Background(), &UpdateInput{CurrentVersion: "v1.0.0"}, func(UpdateProgress) {})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "download archive")
	})
}

// releaseServer fakes the endpoints Update talks to: the latest-release
// lookup plus the asset and checksums downloads for one tag. Passing nil
// for archive or checksums leaves that route unregistered so the download
// 404s.
func releaseServer(t *testing.T, tag, asset string, archive, checksums []byte) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/JieWu02/nanochat/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"tag_name":%q,"html_url":"https://example.com/%s"}`, tag, tag)
	})
	if archive != nil {
		mux.HandleFunc(fmt.Sprintf("/JieWu02/nanochat/releases/download/%s/%s", tag, asset), func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write(archive)
		})
	}
	if checksums != nil {
		mux.HandleFunc(fmt.Sprintf("/JieWu02/nanochat/releases/download/%s/checksums.txt", tag), func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write(checksums)
		})
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func buildTarGz(t *testing.T, name string, content []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)

	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name: name,
		Size: int64(len(content)),
		Mode: 0755,
	}))
	_, err := tw.Write(content)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
	return buf.Bytes()
}

func buildZip(t *testing.T, name string, content []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create(name)
	require.NoError(t, err)
	_, err = f.Write(content)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}
