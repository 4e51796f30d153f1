package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/charmbracelet/glamour"
	"github.com/joho/godotenv"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/rl1809/laventory/internal/adapter/handler/ledgerpb"
)

const callTimeout = 30 * time.Second

type clientConfig struct {
	Addr  string `env:"LAVENTORY_ADDR" envDefault:"localhost:50051"`
	Token string `env:"LAVENTORY_TOKEN"`
}

func loadClientConfig() (clientConfig, error) {
	_ = godotenv.Load()
	var cfg clientConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse client config: %w", err)
	}
	return cfg, nil
}

// session is an open connection to the ledger service.
type session struct {
	conn   *grpc.ClientConn
	client ledgerpb.LedgerClient
	token  string
}

func dial() (*session, error) {
	cfg, err := loadClientConfig()
	if err != nil {
		return nil, err
	}
	conn, err := grpc.NewClient(cfg.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Addr, err)
	}
	return &session{
		conn:   conn,
		client: ledgerpb.NewLedgerClient(conn),
		token:  cfg.Token,
	}, nil
}

func (s *session) Close() error {
	return s.conn.Close()
}

// call returns a context carrying the bearer token, bounded by callTimeout.
func (s *session) call(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	return ledgerpb.WithToken(ctx, s.token), cancel
}

// replyError turns an unsuccessful reply into an error.
func replyError(success bool, kind, message string) error {
	if success {
		return nil
	}
	if kind == "" {
		return fmt.Errorf("%s", message)
	}
	return fmt.Errorf("%s (%s)", message, kind)
}

func printItems(items []*ledgerpb.Item) {
	if len(items) == 0 {
		fmt.Println("Inventory is empty.")
		return
	}
	fmt.Print(render(itemsMarkdown(items)))
}

func itemsMarkdown(items []*ledgerpb.Item) string {
	var b strings.Builder
	b.WriteString("| Item | Quantity |\n|---|---:|\n")
	for _, item := range items {
		fmt.Fprintf(&b, "| %s | %d |\n", strings.ReplaceAll(item.Name, "|", `\|`), item.Quantity)
	}
	return b.String()
}

// render formats markdown for the terminal, falling back to the raw text.
func render(md string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
