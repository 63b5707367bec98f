// Command gen-token prints bearer tokens for local testing.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"taskmanager-api/domain"
	testutil "taskmanager-api/tests/utils"
)

func main() {
	var (
		count  = flag.Int("count", 1, "number of tokens to generate")
		prefix = flag.String("prefix", "perf-user", "login prefix when count > 1")
		start  = flag.Int64("start", 1, "first user id")
		role   = flag.String("role", string(domain.StatusUser), "role claim: Admin, Editor or User")
		output = flag.String("output", "", "file to write generated tokens as a JSON array")
	)
	flag.Parse()

	if *count < 1 {
		log.Fatal("count must be at least 1")
	}
	if *start < 1 {
		log.Fatal("start id must be at least 1")
	}
	args := flag.Args()
	if len(args) > 0 && *count > 1 {
		log.Fatal("explicit login cannot be provided when generating multiple tokens")
	}

	tokens, err := generateTokens(*count, *prefix, *start, domain.UserStatus(*role), args)
	if err != nil {
		log.Fatalf("generate token: %v", err)
	}

	if *output != "" {
		if err := writeTokens(*output, tokens); err != nil {
			log.Fatalf("write tokens: %v", err)
		}
	}

	fmt.Print(tokens[0])
}

func generateTokens(count int, prefix string, start int64, role domain.UserStatus, args []string) ([]string, error) {
	tokens := make([]string, count)
	for i := 0; i < count; i++ {
		id := start + int64(i)
		var login string
		switch {
		case len(args) > 0:
			login = args[0]
		case count == 1:
			login = prefix
		default:
			login = fmt.Sprintf("%s-%d", prefix, id)
		}

		tok, err := testutil.TestToken(login, id, role)
		if err != nil {
			return nil, err
		}
		tokens[i] = tok
	}
	return tokens, nil
}

func writeTokens(path string, tokens []string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := sonic.Marshal(tokens)
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}
