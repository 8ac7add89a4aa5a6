/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/inkpost/blogapi/internal/db"
	"github.com/inkpost/blogapi/internal/services"
	"github.com/inkpost/blogapi/internal/store"
	"github.com/spf13/cobra"
)

var (
	authorEmail    string
	authorName     string
	authorPassword string
)

// authorCmd groups author administration. Authors cannot sign up over HTTP.
var authorCmd = &cobra.Command{
	Use:   "author",
	Short: "Manage authors",
}

var authorCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Provision an author account",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		conn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer conn.Close()

		auth := services.NewAuthService(store.NewAuthorRepository(conn), nil)
		author, err := auth.Register(cmd.Context(), authorEmail, authorName, authorPassword)
		if err != nil {
			return fmt.Errorf("create author: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created author %s <%s>\n", author.ID, author.Email)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(authorCmd)
	authorCmd.AddCommand(authorCreateCmd)

	authorCreateCmd.Flags().StringVar(&authorEmail, "email", "", "login email")
	authorCreateCmd.Flags().StringVar(&authorName, "name", "", "display name")
	authorCreateCmd.Flags().StringVar(&authorPassword, "password", "", "login password")
	_ = authorCreateCmd.MarkFlagRequired("email")
	_ = authorCreateCmd.MarkFlagRequired("password")
}
