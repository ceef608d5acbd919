// export copies portfolios from the realtime database into postgresql for
// offline analysis.
// table structure:
//	portfolio:
//		uid
//		created_at
//		updated_at
//		hash
//		raw_json
//		vector from OpenAI
// output:
//	created count
//	updated count
//	unchanged count
package main

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	openai "github.com/sashabaranov/go-openai"

	"github.com/youquery/backend/portfolio"
)

const dbDriver = "postgres"

var schema = `
CREATE TABLE IF NOT EXISTS portfolio (
	uid TEXT PRIMARY KEY,
	created_at TIMESTAMP NOT NULL DEFAULT now(),
	updated_at TIMESTAMP NOT NULL DEFAULT now(),
	hash TEXT NOT NULL,
	raw_json JSONB NOT NULL,
	vector JSONB
);`

func main() {
	dsn := flag.String("dsn", "", "postgresql connection string")
	uid := flag.String("uid", "", "export a single user instead of all")
	embed := flag.Bool("embeddings", false, "compute profile embeddings via OpenAI")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	if *dsn == "" {
		*dsn = os.Getenv("EXPORT_DSN")
	}
	if *dsn == "" {
		log.Fatal("provide a connection string via -dsn or EXPORT_DSN")
	}

	ctx := context.Background()

	store, err := portfolio.NewDatabase(ctx)
	if err != nil {
		log.Fatalf("failed to connect to the document store: %v", err)
	}

	db, err := sqlx.ConnectContext(ctx, dbDriver, *dsn)
	if err != nil {
		log.Fatalf("failed to connect to postgresql: %v", err)
	}
	defer db.Close()
	db.MustExecContext(ctx, schema)

	portfolios, err := loadPortfolios(ctx, store, *uid)
	if err != nil {
		log.Fatalf("failed to load portfolios: %v", err)
	}

	var embedder *openai.Client
	if *embed {
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			log.Fatal("OPENAI_API_KEY is required with -embeddings")
		}
		embedder = openai.NewClient(apiKey)
	}

	var created, updated, unchanged int
	for userID, raw := range portfolios {
		outcome, err := upsert(ctx, db, embedder, userID, raw)
		if err != nil {
			log.Fatalf("failed to export portfolio for %s: %v", userID, err)
		}
		switch outcome {
		case outcomeCreated:
			created++
		case outcomeUpdated:
			updated++
		default:
			unchanged++
		}
	}

	fmt.Printf("created: %d\nupdated: %d\nunchanged: %d\n", created, updated, unchanged)
}

func loadPortfolios(ctx context.Context, store portfolio.Database, uid string) (map[string]json.RawMessage, error) {
	if uid != "" {
		var raw json.RawMessage
		if err := store.Get(ctx, "portfolios/"+uid, &raw); err != nil {
			return nil, err
		}
		if len(raw) == 0 || string(raw) == "null" {
			return nil, fmt.Errorf("no portfolio for uid %s", uid)
		}
		return map[string]json.RawMessage{uid: raw}, nil
	}

	var all map[string]json.RawMessage
	if err := store.Get(ctx, "portfolios", &all); err != nil {
		return nil, err
	}
	return all, nil
}

type outcome int

const (
	outcomeUnchanged outcome = iota
	outcomeCreated
	outcomeUpdated
)

func upsert(ctx context.Context, db *sqlx.DB, embedder *openai.Client, uid string, raw json.RawMessage) (outcome, error) {
	sum := sha256.Sum256(raw)
	hash := hex.EncodeToString(sum[:])

	var existing string
	err := db.GetContext(ctx, &existing, `SELECT hash FROM portfolio WHERE uid = $1`, uid)
	rowMissing := errors.Is(err, sql.ErrNoRows)
	switch {
	case err == nil && existing == hash:
		return outcomeUnchanged, nil
	case err != nil && !rowMissing:
		return outcomeUnchanged, err
	}

	var vector []byte
	if embedder != nil {
		vector, err = profileVector(ctx, embedder, raw)
		if err != nil {
			return outcomeUnchanged, err
		}
	}

	if rowMissing {
		_, err = db.ExecContext(ctx,
			`INSERT INTO portfolio (uid, hash, raw_json, vector) VALUES ($1, $2, $3, $4)`,
			uid, hash, []byte(raw), vector,
		)
		if err != nil {
			return outcomeUnchanged, err
		}
		return outcomeCreated, nil
	}

	_, err = db.ExecContext(ctx,
		`UPDATE portfolio SET hash = $2, raw_json = $3, vector = $4, updated_at = now() WHERE uid = $1`,
		uid, hash, []byte(raw), vector,
	)
	if err != nil {
		return outcomeUnchanged, err
	}
	return outcomeUpdated, nil
}

// profileVector embeds a short textual summary of the portfolio, not the
// raw JSON, so that formatting churn does not move the vector.
func profileVector(ctx context.Context, embedder *openai.Client, raw json.RawMessage) ([]byte, error) {
	var p portfolio.Portfolio
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}

	resp, err := embedder.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: summarize(&p),
		Model: openai.AdaEmbeddingV2,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("embedding response contains no data")
	}
	return json.Marshal(resp.Data[0].Embedding)
}

func summarize(p *portfolio.Portfolio) string {
	var b strings.Builder
	if p.Profile != nil {
		fmt.Fprintf(&b, "%s. %s\n", p.Profile.Name, p.Profile.Bio)
	}
	for _, pr := range p.Projects {
		fmt.Fprintf(&b, "Project %s: %s (%s)\n", pr.Title, pr.Description, strings.Join(pr.TechStack, ", "))
	}
	for _, sk := range p.Skills {
		fmt.Fprintf(&b, "Skill: %s %s %s\n", sk.Name, sk.Category, sk.Proficiency)
	}
	for _, e := range p.Experience {
		fmt.Fprintf(&b, "Worked at %s as %s: %s\n", e.CompanyName, e.Role, e.Description)
	}
	return b.String()
}
