package main

import (
	"context"
	"flag"

	"github.com/google/subcommands"

	"github.com/rl1809/laventory/internal/adapter/handler/ledgerpb"
	"github.com/rl1809/laventory/internal/core/domain"
)

type listCmd struct {
	query string
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list the items of the inventory" }
func (*listCmd) Usage() string {
	return `list [-q <text>]

  Lists the inventory sorted by name. With -q only the items whose name
  contains the text, ignoring case, are listed.
`
}

func (c *listCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.query, "q", "", "only list items whose name contains this text")
}

func (c *listCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, err := dial()
	if err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}
	defer s.Close()

	ctx, cancel := s.call(ctx)
	defer cancel()
	reply, err := s.client.List(ctx, &ledgerpb.ListRequest{Query: c.query})
	if err != nil {
		fail("list: %v", err)
		return subcommands.ExitFailure
	}
	if err := replyError(reply.Success, reply.ErrorKind, reply.Message); err != nil {
		fail("list: %v", err)
		return subcommands.ExitFailure
	}
	printItems(reply.Items)
	return subcommands.ExitSuccess
}

type addCmd struct {
	quantity string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "add units of an item" }
func (*addCmd) Usage() string {
	return `add [-n <quantity>] <item>

  Adds quantity units of the item, creating it when missing. The quantity
  defaults to 1 when omitted or not a number.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.quantity, "n", "", "number of units to add (default 1)")
}

func (c *addCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fail("add takes exactly one item name")
		return subcommands.ExitUsageError
	}

	n, err := domain.ParseQuantity(c.quantity)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitUsageError
	}
	quantity := int32(n)

	s, err := dial()
	if err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}
	defer s.Close()
	ctx, cancel := s.call(ctx)
	defer cancel()
	reply, err := s.client.Add(ctx, &ledgerpb.AddRequest{Name: f.Arg(0), Quantity: &quantity})
	if err != nil {
		fail("add: %v", err)
		return subcommands.ExitFailure
	}
	if err := replyError(reply.Success, reply.ErrorKind, reply.Message); err != nil {
		fail("add: %v", err)
		return subcommands.ExitFailure
	}
	printItems(reply.Items)
	return subcommands.ExitSuccess
}

type removeCmd struct{}

func (*removeCmd) Name() string     { return "remove" }
func (*removeCmd) Synopsis() string { return "remove one unit of an item" }
func (*removeCmd) Usage() string {
	return `remove <item>

  Removes one unit of the item. The item disappears with its last unit.
`
}

func (*removeCmd) SetFlags(f *flag.FlagSet) {}

func (*removeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fail("remove takes exactly one item name")
		return subcommands.ExitUsageError
	}

	s, err := dial()
	if err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}
	defer s.Close()

	ctx, cancel := s.call(ctx)
	defer cancel()
	reply, err := s.client.Remove(ctx, &ledgerpb.RemoveRequest{Name: f.Arg(0)})
	if err != nil {
		fail("remove: %v", err)
		return subcommands.ExitFailure
	}
	if err := replyError(reply.Success, reply.ErrorKind, reply.Message); err != nil {
		fail("remove: %v", err)
		return subcommands.ExitFailure
	}
	printItems(reply.Items)
	return subcommands.ExitSuccess
}

// itemNames lists the inventory for shell completion. Errors yield no
// suggestion.
func itemNames(prefix string) []string {
	s, err := dial()
	if err != nil {
		return nil
	}
	defer s.Close()

	ctx, cancel := s.call(context.Background())
	defer cancel()
	reply, err := s.client.List(ctx, &ledgerpb.ListRequest{})
	if err != nil || !reply.Success {
		return nil
	}
	names := make([]string, 0, len(reply.Items))
	for _, item := range reply.Items {
		names = append(names, item.Name)
	}
	return names
}
