package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/google/subcommands"

	"github.com/rl1809/laventory/internal/adapter/handler/ledgerpb"
)

type detectCmd struct {
	add bool
}

func (*detectCmd) Name() string     { return "detect" }
func (*detectCmd) Synopsis() string { return "detect items in a picture" }
func (*detectCmd) Usage() string {
	return `detect [-add] <image>

  Lists the objects recognised in the image, best match first. With -add
  one unit of the best match is added to the inventory.
`
}

func (c *detectCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.add, "add", false, "add the best match to the inventory")
}

func (c *detectCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fail("detect takes exactly one image file")
		return subcommands.ExitUsageError
	}

	image, err := os.ReadFile(f.Arg(0))
	if err != nil {
		fail("read image: %v", err)
		return subcommands.ExitFailure
	}

	s, err := dial()
	if err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}
	defer s.Close()

	ctx, cancel := s.call(ctx)
	defer cancel()
	reply, err := s.client.Detect(ctx, &ledgerpb.DetectRequest{
		Image:    image,
		MimeType: http.DetectContentType(image),
		Add:      c.add,
	})
	if err != nil {
		fail("detect: %v", err)
		return subcommands.ExitFailure
	}
	if err := replyError(reply.Success, reply.ErrorKind, reply.Message); err != nil {
		fail("detect: %v", err)
		return subcommands.ExitFailure
	}

	for _, d := range reply.Detections {
		fmt.Printf("%-24s %5.1f%%\n", d.Label, d.Score*100)
	}
	if reply.Added != nil {
		fmt.Printf("Added one %s.\n\n", reply.Added.Label)
		printItems(reply.Items)
	}
	return subcommands.ExitSuccess
}
