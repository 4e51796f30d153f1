package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/rl1809/laventory/internal/adapter/handler/ledgerpb"
	"github.com/rl1809/laventory/internal/core/domain"
)

type recipeCmd struct {
	raw bool
}

func (*recipeCmd) Name() string     { return "recipe" }
func (*recipeCmd) Synopsis() string { return "suggest a recipe from inventory items" }
func (*recipeCmd) Usage() string {
	return `recipe [-raw] <ingredient>...

  Asks for a recipe made with the given ingredients. Every ingredient must
  be in the inventory. The recipe is rendered for the terminal unless -raw
  is set, in which case the markdown is printed as is.
`
}

func (c *recipeCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.raw, "raw", false, "print the recipe markdown without rendering")
}

func (c *recipeCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fail("recipe needs at least one ingredient")
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
	reply, err := s.client.GenerateRecipe(ctx, &ledgerpb.RecipeRequest{Ingredients: f.Args()})
	if err != nil {
		fail("recipe: %v", err)
		return subcommands.ExitFailure
	}
	if err := replyError(reply.Success, reply.ErrorKind, reply.Message); err != nil {
		fail("recipe: %v", err)
		return subcommands.ExitFailure
	}

	recipe := domain.Recipe{
		Name:         reply.Recipe.Name,
		Ingredients:  reply.Recipe.Ingredients,
		Instructions: reply.Recipe.Instructions,
	}
	if c.raw {
		fmt.Print(recipe.Markdown())
	} else {
		fmt.Print(render(recipe.Markdown()))
	}
	return subcommands.ExitSuccess
}
