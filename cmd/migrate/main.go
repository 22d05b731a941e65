// Command migrate copies every scorer key from one backend to another.
// The source is configured with the usual STORE_* variables and the
// destination with the same names prefixed by DEST_, for example
//
//	STORE_BACKEND=file DATA_DIR=./data \
//	DEST_STORE_BACKEND=firestore DEST_GCP_PROJECT_ID=my-project migrate
//
// Values are copied byte for byte. Keys missing from the source are left
// untouched in the destination.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/sirupsen/logrus"

	"badminton-scoring/internal/config"
	"badminton-scoring/internal/models"
	"badminton-scoring/internal/store"
)

func main() {
	srcCfg, err := config.LoadStoreConfig("")
	if err != nil {
		log.Fatalf("Invalid source configuration: %v", err)
	}
	dstCfg, err := config.LoadStoreConfig("DEST_")
	if err != nil {
		log.Fatalf("Invalid destination configuration: %v", err)
	}

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	ctx := context.Background()

	src, err := store.Open(ctx, *srcCfg, logger)
	if err != nil {
		log.Fatalf("Failed to open source store: %v", err)
	}
	defer src.Close()

	dst, err := store.Open(ctx, *dstCfg, logger)
	if err != nil {
		log.Fatalf("Failed to open destination store: %v", err)
	}
	defer dst.Close()

	fmt.Printf("Migrating %s -> %s\n\n", srcCfg.Backend, dstCfg.Backend)

	copied, skipped := 0, 0
	for _, key := range store.AllKeys {
		value, err := src.Get(ctx, key)
		if errors.Is(err, store.ErrNotFound) {
			fmt.Printf("  %s: not set\n", key)
			skipped++
			continue
		}
		if err != nil {
			fmt.Printf("  %s: SKIP: %v\n", key, err)
			skipped++
			continue
		}

		fmt.Printf("  %s: %d bytes%s\n", key, len(value), describe(key, value))
		if err := dst.Set(ctx, key, value); err != nil {
			fmt.Printf("    SKIP: %v\n", err)
			skipped++
			continue
		}
		fmt.Printf("    OK\n")
		copied++
	}

	fmt.Printf("\nDone. Copied %d key(s), skipped %d.\n", copied, skipped)
}

// describe summarises a value for the migration log. Values that do not
// decode are still copied.
func describe(key string, value []byte) string {
	switch key {
	case store.KeyMatchHistory:
		var history []models.Match
		if err := json.Unmarshal(value, &history); err == nil {
			return fmt.Sprintf(" (%d match(es))", len(history))
		}
	case store.KeyTeamMatchHistory, store.KeyDrafts:
		var list []models.TeamMatch
		if err := json.Unmarshal(value, &list); err == nil {
			return fmt.Sprintf(" (%d team match(es))", len(list))
		}
	case store.KeyCurrentTeamMatch:
		var tm models.TeamMatch
		if err := json.Unmarshal(value, &tm); err == nil {
			return fmt.Sprintf(" (%s: %s vs %s, %d-%d)", tm.Title, tm.TeamA.Name, tm.TeamB.Name, tm.ScoreA, tm.ScoreB)
		}
	case store.KeyCurrentMatch:
		var m models.Match
		if err := json.Unmarshal(value, &m); err == nil {
			return fmt.Sprintf(" (%d-%d)", m.Score1, m.Score2)
		}
	}
	return " (unreadable, copying as is)"
}
