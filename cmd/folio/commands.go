package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/kevinmichaelchen/folio/internal/config"
	"github.com/kevinmichaelchen/folio/internal/llm"
	"github.com/kevinmichaelchen/folio/internal/logger"
	"github.com/kevinmichaelchen/folio/internal/models"
	"github.com/kevinmichaelchen/folio/internal/nav"
	"github.com/kevinmichaelchen/folio/internal/repos"
	"github.com/kevinmichaelchen/folio/internal/server"
	"github.com/kevinmichaelchen/folio/internal/skills"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API used by the site's pages",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			cfg := config.Load()
			if err := cfg.Validate(); err != nil {
				return err
			}

			var lister server.RepoLister
			l, err := repos.FromConfig(ctx, cfg)
			if err != nil {
				// Pages other than projects still work without a token.
				logger.G(ctx).WithError(err).Warn("repository listing disabled")
				lister = server.RepoListerFunc(func(context.Context) ([]models.Repo, error) { return nil, err })
			} else {
				lister = l
			}

			srv := server.New(server.Deps{
				Skills: skills.NewCatalog(cfg.SkillsPath),
				Repos:  lister,
				Chat:   llm.FromConfig(cfg),
			})
			return srv.Start(ctx, cfg.ListenAddr)
		},
	}
	cmd.Flags().String("addr", ":8080", "Listen address")
	_ = config.V.BindPFlag("listen_addr", cmd.Flags().Lookup("addr"))
	return cmd
}

func skillsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "skills",
		Short: "Print the skills catalog grouped by category",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.Load()

			got, err := skills.NewCatalog(cfg.SkillsPath).Categorize(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, group := range []struct {
				label string
				cards []models.Card
			}{
				{"Languages", got.Languages},
				{"Frameworks & libraries", got.Frameworks},
				{"Technologies", got.Technologies},
			} {
				fmt.Fprintf(out, "%s (%d)\n", group.label, len(group.cards))
				for _, c := range group.cards {
					fmt.Fprintf(out, "  %-20s %s\n", c.Title, c.Image)
				}
			}
			return nil
		},
	}
}

func imageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "image [language]",
		Short: "Print the icon path of a language from the skills catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()

			image, ok := skills.NewCatalog(cfg.SkillsPath).LanguageImage(cmd.Context(), args[0])
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "No image for %q\n", args[0])
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), image)
			return nil
		},
	}
}

func reposCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repos",
		Short: "List the account's public repositories with their top languages",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.Load()
			if err := cfg.Validate(); err != nil {
				return err
			}

			lister, err := repos.FromConfig(ctx, cfg)
			if err != nil {
				return err
			}
			list, err := lister.List(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d repositories for %s:\n\n", len(list), cfg.GitHubUser)
			for i, r := range list {
				fmt.Fprintf(out, "%d. %s  [%s]\n", i+1, r.Name, strings.Join(r.Languages, ", "))
				fmt.Fprintf(out, "   %s\n", r.URL)
				if r.Description != nil {
					fmt.Fprintf(out, "   %s\n", *r.Description)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat [prompt]",
		Short: "Ask the mentor persona a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			reply := llm.FromConfig(cfg).Reply(cmd.Context(), strings.Join(args, " "))
			fmt.Fprintln(cmd.OutOrStdout(), reply)
			return nil
		},
	}
}

func activeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "active [current-path] [nav-path]",
		Short: "Print the navigation class for a link",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "%q\n", nav.IsActive(args[0], args[1]))
			return nil
		},
	}
}
