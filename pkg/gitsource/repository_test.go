package gitsource

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"unitytk/protokit/pkg/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// commitFile writes name into the work tree of repo at dir and commits it.
func commitFile(t *testing.T, repo *gogit.Repository, dir, name, content string) {
	t.Helper()

	path := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}
	if _, err := worktree.Add(name); err != nil {
		t.Fatalf("failed to add %s: %v", name, err)
	}
	_, err = worktree.Commit("update "+name, &gogit.CommitOptions{
		Author: &object.Signature{Name: "Content Bot", Email: "content@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("failed to commit: %v", err)
	}
}

func createSourceRepo(t *testing.T) (*gogit.Repository, string) {
	t.Helper()
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("failed to init repo: %v", err)
	}
	commitFile(t, repo, dir, "content/items.xml", `<PrototypeContainer Type="Item"/>`)
	return repo, dir
}

func testGitConfig(source, local string) *config.GitConfig {
	return &config.GitConfig{
		Repository: source,
		Branch:     "master",
		LocalPath:  local,
		Timeout:    config.NewDuration(10 * time.Second),
		Auth:       config.GitAuthConfig{Type: "none"},
	}
}

func TestNewRepository(t *testing.T) {
	tests := []struct {
		name        string
		cfg         *config.GitConfig
		contentPath string
		wantErr     bool
	}{
		{name: "nil config", wantErr: true},
		{name: "empty URL", cfg: &config.GitConfig{Branch: "main"}, wantErr: true},
		{name: "empty branch", cfg: &config.GitConfig{Repository: "https://example.com/c.git"}, wantErr: true},
		{name: "absolute content path", cfg: testGitConfig("https://example.com/c.git", "/tmp/x"), contentPath: "/content", wantErr: true},
		{name: "bad auth", cfg: &config.GitConfig{Repository: "https://example.com/c.git", Branch: "main", Auth: config.GitAuthConfig{Type: "token"}}, wantErr: true},
		{name: "valid", cfg: testGitConfig("https://example.com/c.git", "/tmp/x"), contentPath: "content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRepository(tt.cfg, tt.contentPath, discardLogger())
			if (err != nil) != tt.wantErr {
				t.Errorf("NewRepository() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRepository_SyncClonesThenPulls(t *testing.T) {
	source, sourceDir := createSourceRepo(t)
	local := filepath.Join(t.TempDir(), "clone")

	repo, err := NewRepository(testGitConfig(sourceDir, local), "content", discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := repo.Head(); err == nil {
		t.Error("Head() before Sync should fail")
	}

	res, err := repo.SyncResult(context.Background())
	if err != nil {
		t.Fatalf("first Sync() failed: %v", err)
	}
	if !res.Cloned || res.ToSHA == "" {
		t.Errorf("first sync = %+v, want clone", res)
	}
	if repo.Root() != filepath.Join(local, "content") {
		t.Errorf("Root() = %q", repo.Root())
	}
	if _, err := os.Stat(filepath.Join(repo.Root(), "items.xml")); err != nil {
		t.Errorf("items.xml not checked out: %v", err)
	}

	res, err = repo.SyncResult(context.Background())
	if err != nil {
		t.Fatalf("second Sync() failed: %v", err)
	}
	if res.HadChanges {
		t.Errorf("sync without new commits = %+v, want no changes", res)
	}

	commitFile(t, source, sourceDir, "content/weapons.xml", `<PrototypeContainer Type="Weapon"/>`)
	res, err = repo.SyncResult(context.Background())
	if err != nil {
		t.Fatalf("third Sync() failed: %v", err)
	}
	if !res.HadChanges || res.FromSHA == res.ToSHA {
		t.Errorf("sync after commit = %+v, want changes", res)
	}
	if _, err := os.Stat(filepath.Join(repo.Root(), "weapons.xml")); err != nil {
		t.Errorf("weapons.xml not pulled: %v", err)
	}

	head, err := repo.Head()
	if err != nil {
		t.Fatal(err)
	}
	if head.SHA != res.ToSHA || head.Author != "Content Bot" || head.Branch != "master" {
		t.Errorf("Head() = %+v", head)
	}
	if repo.LastSync().IsZero() {
		t.Error("LastSync() should be set")
	}
}

func TestRepository_ReusesExistingClone(t *testing.T) {
	_, sourceDir := createSourceRepo(t)
	local := filepath.Join(t.TempDir(), "clone")
	cfg := testGitConfig(sourceDir, local)

	first, _ := NewRepository(cfg, "content", discardLogger())
	if err := first.Sync(context.Background()); err != nil {
		t.Fatalf("Sync() failed: %v", err)
	}

	second, _ := NewRepository(cfg, "content", discardLogger())
	res, err := second.SyncResult(context.Background())
	if err != nil {
		t.Fatalf("Sync() on existing clone failed: %v", err)
	}
	if res.Cloned {
		t.Error("existing clone should be opened, not cloned again")
	}
}

func TestRepository_SyncMissingRemote(t *testing.T) {
	repo, err := NewRepository(testGitConfig(filepath.Join(t.TempDir(), "nowhere"), t.TempDir()), "content", discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.Sync(context.Background()); err == nil {
		t.Error("Sync() from a missing remote should fail")
	}
}

func TestNewAuthProvider(t *testing.T) {
	tests := []struct {
		cfg      config.GitAuthConfig
		wantType string
		wantErr  bool
	}{
		{config.GitAuthConfig{}, "none", false},
		{config.GitAuthConfig{Type: "token", Token: "abc"}, "token", false},
		{config.GitAuthConfig{Type: "token"}, "", true},
		{config.GitAuthConfig{Type: "ssh", SSHKeyPath: "/keys/id"}, "ssh", false},
		{config.GitAuthConfig{Type: "ssh"}, "", true},
		{config.GitAuthConfig{Type: "kerberos"}, "", true},
	}
	for _, tt := range tests {
		p, err := NewAuthProvider(&tt.cfg)
		if (err != nil) != tt.wantErr {
			t.Errorf("NewAuthProvider(%+v) error = %v, wantErr %v", tt.cfg, err, tt.wantErr)
			continue
		}
		if err == nil && p.Type() != tt.wantType {
			t.Errorf("Type() = %q, want %q", p.Type(), tt.wantType)
		}
	}

	auth, err := (&TokenAuth{token: "abc"}).GetAuth()
	if err != nil || auth == nil {
		t.Errorf("TokenAuth.GetAuth() = %v, %v", auth, err)
	}
}

func TestSSHAuth_RejectsOpenPermissions(t *testing.T) {
	key := filepath.Join(t.TempDir(), "id_test")
	if err := os.WriteFile(key, []byte("not a key"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := (&SSHAuth{keyPath: key}).GetAuth(); err == nil {
		t.Error("GetAuth() should reject a world-readable key")
	}
}
