// Package source imports cards from registered origins: local directories or
// git repositories of markdown card files. A sync run parses every file,
// inserts new cards into their decks with fresh scheduling state, and removes
// source-owned cards whose content has disappeared.
package source

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cianmurphy/decksched/internal/cardhash"
	"github.com/cianmurphy/decksched/internal/domain"
	"github.com/cianmurphy/decksched/internal/engine"
	"github.com/cianmurphy/decksched/internal/parser"
	"github.com/cianmurphy/decksched/internal/storage"
)

// fallbackDeck receives cards whose source names no deck.
const fallbackDeck = "inbox"

// TypeOf classifies a source path as "git" or "local".
func TypeOf(path string) string {
	if strings.HasSuffix(path, ".git") || strings.HasPrefix(path, "git@") ||
		strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "http://") {
		return "git"
	}
	return "local"
}

// Syncer reconciles registered sources against the store.
type Syncer struct {
	db       *storage.DB
	engine   *engine.Engine
	reposDir string
}

// NewSyncer creates a Syncer. reposDir is where git sources are checked out.
func NewSyncer(db *storage.DB, eng *engine.Engine, reposDir string) *Syncer {
	return &Syncer{db: db, engine: eng, reposDir: reposDir}
}

// RunSync iterates over all registered sources and reconciles each one.
// Per-source failures are logged and skipped so one broken source does not
// block the rest.
func (s *Syncer) RunSync(today time.Time) error {
	sources, err := s.db.GetAllSources()
	if err != nil {
		return fmt.Errorf("failed to get sources: %w", err)
	}
	if len(sources) == 0 {
		slog.Info("no card sources configured")
		return nil
	}

	if err := os.MkdirAll(s.reposDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create repos directory: %w", err)
	}

	for _, src := range sources {
		slog.Info("syncing source", "id", src.ID, "type", src.Type, "path", src.Path)

		scanPath := src.Path
		if src.Type == "git" {
			localPath, err := gitURLToLocalPath(s.reposDir, src.Path)
			if err != nil {
				slog.Error("cannot determine local path for git source", "url", src.Path, "error", err)
				continue
			}
			if err := syncGit(src.Path, localPath); err != nil {
				slog.Error("git sync failed", "url", src.Path, "error", err)
				continue
			}
			scanPath = localPath
		}

		if err := s.reconcile(src, scanPath, today); err != nil {
			slog.Error("reconciliation failed", "path", src.Path, "error", err)
		}
	}
	return nil
}

// reconcile walks a source's files, inserts newly authored cards, and deletes
// orphaned ones.
func (s *Syncer) reconcile(src storage.Source, scanPath string, today time.Time) error {
	foundHashes := make(map[string]bool)
	var inserted, parseErrors int

	walkErr := filepath.WalkDir(scanPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}

		fileCards, parseErr := parser.ParseFile(path)
		if parseErr != nil {
			slog.Warn("parse failed", "file", path, "error", parseErr)
			parseErrors++
			return nil
		}

		for _, pc := range fileCards {
			hash := cardhash.Hash(pc.Front, pc.Back)
			foundHashes[hash] = true

			existing, findErr := s.db.FindCardByHash(hash)
			if findErr != nil {
				return fmt.Errorf("db check for %s: %w", hash, findErr)
			}
			if existing != nil {
				continue
			}

			if err := s.insertCard(src, pc, hash, today); err != nil {
				slog.Warn("insert failed", "hash", hash, "error", err)
				parseErrors++
				continue
			}
			inserted++
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("walking %s: %w", scanPath, walkErr)
	}

	dbCards, err := s.db.GetCardsBySourceID(src.ID)
	if err != nil {
		return fmt.Errorf("getting cards for source %d: %w", src.ID, err)
	}

	var orphaned int
	for _, dbCard := range dbCards {
		if !foundHashes[dbCard.Hash] {
			orphaned++
			if err := s.db.DeleteCardByHash(dbCard.Hash); err != nil {
				slog.Warn("failed to delete orphaned card", "hash", dbCard.Hash, "error", err)
			}
		}
	}

	if err := s.db.UpdateSourceLastScanned(src.ID); err != nil {
		slog.Warn("failed to update last scanned", "source_id", src.ID, "error", err)
	}

	slog.Info("reconciliation complete",
		"path", src.Path,
		"inserted", inserted,
		"orphaned_deleted", orphaned,
		"errors", parseErrors,
	)
	return nil
}

// insertCard places a parsed card into its deck, creating the deck (in
// memory-model mode) if it does not exist yet.
func (s *Syncer) insertCard(src storage.Source, pc parser.ParsedCard, hash string, today time.Time) error {
	deckName := pc.Deck
	if deckName == "" {
		deckName = src.DeckName
	}
	if deckName == "" {
		deckName = fallbackDeck
	}

	deck, err := s.db.GetDeckByName(deckName)
	if err != nil {
		if err != storage.ErrNotFound {
			return err
		}
		deck = &domain.Deck{Name: deckName, Mode: domain.ModeMemoryModel}
		if err := s.db.InsertDeck(deck); err != nil {
			return err
		}
		slog.Info("created deck for source cards", "deck", deckName)
	}

	card, err := s.engine.ScheduleCardCreation(*deck, today)
	if err != nil {
		return err
	}
	card.Front = pc.Front
	card.Back = pc.Back
	card.Hash = hash

	return s.db.InsertCard(&card, &src.ID)
}

// gitURLToLocalPath maps a git URL onto a checkout path under baseDir.
func gitURLToLocalPath(baseDir, repoURL string) (string, error) {
	parsedURL, err := url.Parse(repoURL)
	if err != nil || (parsedURL.Scheme != "https" && parsedURL.Scheme != "http") {
		// scp-like syntax: git@host:user/repo.git
		if strings.Contains(repoURL, "@") {
			parts := strings.Split(repoURL, ":")
			if len(parts) == 2 {
				hostAndUser := strings.Split(parts[0], "@")
				if len(hostAndUser) == 2 {
					host := hostAndUser[1]
					repoPath := strings.TrimSuffix(parts[1], ".git")
					return filepath.Join(baseDir, host, repoPath), nil
				}
			}
		}
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}

	sanitized := strings.TrimSuffix(parsedURL.Path, ".git")
	return filepath.Join(baseDir, parsedURL.Host, sanitized), nil
}
