// Package main regenerates the reserved keyword list the dialect package
// falls back to before an engine's own keyword list has been loaded.
//
// Usage:
//
//	go run ./scripts/genkeywords -out=pkg/dialect/keywords_gen.go
package main

import (
	"bytes"
	"context"
	"database/sql"
	"flag"
	"fmt"
	"go/format"
	"log"
	"os"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
)

var (
	outFlag      = flag.String("out", "", "output file path (required)")
	categoryFlag = flag.String("category", "reserved", "keyword category to extract")
	pkgFlag      = flag.String("package", "dialect", "package name of the generated file")
)

func main() {
	flag.Parse()

	if *outFlag == "" {
		log.Fatal("--out flag is required")
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		log.Fatalf("failed to open duckdb: %v", err)
	}

	ctx := context.Background()

	var version string
	if err := db.QueryRowContext(ctx, "SELECT version()").Scan(&version); err != nil {
		_ = db.Close()
		log.Fatalf("failed to get version: %v", err)
	}
	log.Printf("Connected to DuckDB %s", version)

	keywords, err := extractKeywords(ctx, db, *categoryFlag)
	if err != nil {
		_ = db.Close()
		log.Fatalf("failed to extract keywords: %v", err)
	}
	log.Printf("Extracted %d %s keywords", len(keywords), *categoryFlag)

	if err := db.Close(); err != nil {
		log.Printf("warning: failed to close db: %v", err)
	}

	code := generateCode(*pkgFlag, version, keywords)

	formatted, err := format.Source([]byte(code))
	if err != nil {
		log.Printf("Warning: failed to format generated code: %v", err)
		formatted = []byte(code)
	}

	if err := os.WriteFile(*outFlag, formatted, 0o600); err != nil {
		log.Fatalf("failed to write output: %v", err)
	}

	log.Printf("Generated %s", *outFlag)
}

func extractKeywords(ctx context.Context, db *sql.DB, category string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT DISTINCT lower(keyword_name)
		FROM duckdb_keywords()
		WHERE keyword_category = ?
		ORDER BY 1`, category)
	if err != nil {
		return nil, fmt.Errorf("query keywords: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var keywords []string
	for rows.Next() {
		var kw string
		if err := rows.Scan(&kw); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		keywords = append(keywords, strings.TrimSpace(kw))
	}

	return keywords, rows.Err()
}

func generateCode(pkg, version string, keywords []string) string {
	var buf bytes.Buffer

	buf.WriteString("// Code generated by scripts/genkeywords. DO NOT EDIT.\n")
	fmt.Fprintf(&buf, "// Source: DuckDB %s\n", version)
	fmt.Fprintf(&buf, "// Generated: %s\n\n", time.Now().Format("2006-01-02"))
	fmt.Fprintf(&buf, "package %s\n\n", pkg)

	buf.WriteString("// builtinReserved is used until the engine's keyword list has been loaded.\n")
	buf.WriteString("var builtinReserved = []string{\n")
	writeStringSlice(&buf, keywords)
	buf.WriteString("}\n")

	return buf.String()
}

func writeStringSlice(buf *bytes.Buffer, items []string) {
	const itemsPerLine = 6
	for i, item := range items {
		if i%itemsPerLine == 0 {
			buf.WriteString("\t")
		}
		fmt.Fprintf(buf, "%q, ", item)
		if (i+1)%itemsPerLine == 0 {
			buf.WriteString("\n")
		}
	}
	if len(items)%itemsPerLine != 0 {
		buf.WriteString("\n")
	}
}
