package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/opensource-finance/tradescan/internal/domain"
)

// postgresDSN renders cfg as a lib/pq key=value connection string. Values
// are single-quoted so passwords may contain spaces or quotes.
func postgresDSN(cfg domain.RepositoryConfig) string {
	or := func(v, def string) string {
		if v == "" {
			return def
		}
		return v
	}
	port := cfg.PostgresPort
	if port == 0 {
		port = 5432
	}

	pairs := [][2]string{
		{"host", or(cfg.PostgresHost, "localhost")},
		{"port", strconv.Itoa(port)},
		{"user", cfg.PostgresUser},
		{"password", cfg.PostgresPassword},
		{"dbname", or(cfg.PostgresDB, "tradescan")},
		{"sslmode", or(cfg.PostgresSSLMode, "disable")},
		{"application_name", "tradescan"},
		{"connect_timeout", "5"},
	}
	quote := strings.NewReplacer(`\`, `\\`, `'`, `\'`)

	var b strings.Builder
	for _, kv := range pairs {
		if kv[1] == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s='%s'", kv[0], quote.Replace(kv[1]))
	}
	return b.String()
}

// openPostgres opens a shared history database for deployments where several
// tradescan instances must see one run log.
func openPostgres(cfg domain.RepositoryConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", postgresDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres %s:%d: %w", cfg.PostgresHost, cfg.PostgresPort, err)
	}
	return db, nil
}
