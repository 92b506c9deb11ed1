package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/agronova-labs/agronova/pkg/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is overridden by goreleaser via -ldflags "-X main.version=...".
var version = "dev"

var (
	serverURL string
	authToken string
	cfgFile   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "agroctl",
	Short: "Agronova provenance ledger CLI",
	Long: `agroctl is the command-line interface for the Agronova provenance ledger.

It lets farmers list produce, brokers order it, and anyone trace a product's
provenance or inspect the block chain behind it.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(home + "/.agroctl")
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()

		if serverURL == "" {
			serverURL = viper.GetString("server_url")
		}
		if serverURL == "" {
			serverURL = "http://localhost:8080"
		}
		if authToken == "" {
			authToken = viper.GetString("token")
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.agroctl/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Agronova server URL (default http://localhost:8080)")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", "", "session token (or AGROCTL_TOKEN / token in config)")

	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(productsCmd)
	rootCmd.AddCommand(orderCmd)
	rootCmd.AddCommand(traceCmd)
	rootCmd.AddCommand(explorerCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

func api() *client.Client {
	opts := []client.Option{}
	if authToken != "" {
		opts = append(opts, client.WithToken(authToken))
	}
	return client.New(serverURL, opts...)
}

func cmdContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// ── register ─────────────────────────────────────────────────────────────────

var registerCmd = &cobra.Command{
	Use:   "register <actor-id>",
	Short: "Register a new actor (farmer, broker, or consumer)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		role, _ := cmd.Flags().GetString("role")
		name, _ := cmd.Flags().GetString("name")
		password, _ := cmd.Flags().GetString("password")

		ctx, cancel := cmdContext()
		defer cancel()

		actor, err := api().RegisterActor(ctx, args[0], name, password, role)
		if err != nil {
			return err
		}
		fmt.Printf("registered %s (%s)\n", actor.ID, actor.Role)
		return nil
	},
}

// ── login ────────────────────────────────────────────────────────────────────

var loginCmd = &cobra.Command{
	Use:   "login <actor-id>",
	Short: "Log in and print a session token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, _ := cmd.Flags().GetString("password")

		ctx, cancel := cmdContext()
		defer cancel()

		c := api()
		actor, err := c.Login(ctx, args[0], password)
		if err != nil {
			return err
		}
		fmt.Printf("logged in as %s (%s)\n", actor.ID, actor.Role)
		fmt.Println(c.Token())
		fmt.Println("\nexport AGROCTL_TOKEN=<token> or add it to ~/.agroctl/config.yaml")
		return nil
	},
}

// ── list (create listing) ────────────────────────────────────────────────────

var listCmd = &cobra.Command{
	Use:   "list <name>",
	Short: "List produce on the market (farmer only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetString("id")
		qty, _ := cmd.Flags().GetFloat64("quantity")
		price, _ := cmd.Flags().GetFloat64("price")

		ctx, cancel := cmdContext()
		defer cancel()

		result, err := api().CreateListing(ctx, client.ListingRequest{
			ID: id, Name: args[0], QuantityKg: qty, PricePerKg: price,
		})
		if err != nil {
			return err
		}
		fmt.Printf("listed %s as %s (block %d, hash %s)\n",
			result.Product.Name, result.Product.ID, result.Block.Index, short(result.Block.Hash))
		return nil
	},
}

// ── products ─────────────────────────────────────────────────────────────────

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Show the current catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")

		ctx, cancel := cmdContext()
		defer cancel()

		products, err := api().ListProducts(ctx, status)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tQTY (KG)\tPRICE/KG\tOWNER\tSTATUS")
		for _, p := range products {
			fmt.Fprintf(w, "%s\t%s\t%.1f\t%.2f\t%s\t%s\n",
				p.ID, p.Name, p.QuantityKg, p.PricePerKg, p.Owner, p.Status)
		}
		return w.Flush()
	},
}

// ── order ────────────────────────────────────────────────────────────────────

var orderCmd = &cobra.Command{
	Use:   "order <product-id>",
	Short: "Order a listed product (broker only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		buyer, _ := cmd.Flags().GetString("buyer")

		ctx, cancel := cmdContext()
		defer cancel()

		result, err := api().OrderProduct(ctx, args[0], buyer)
		if err != nil {
			return err
		}
		fmt.Printf("ordered %s — now owned by %s (block %d)\n",
			result.Product.ID, result.Product.Owner, result.Block.Index)
		return nil
	},
}

// ── trace ────────────────────────────────────────────────────────────────────

var traceCmd = &cobra.Command{
	Use:   "trace <product-id>",
	Short: "Show a product's provenance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cmdContext()
		defer cancel()

		result, err := api().Trace(ctx, args[0])
		if err != nil {
			return err
		}
		if result.Listing == nil {
			fmt.Printf("no history for %s\n", args[0])
			return nil
		}

		printBlock("listing", result.Listing)
		if result.Transfer != nil {
			printBlock("transfer", result.Transfer)
		}
		return nil
	},
}

func printBlock(label string, b *client.Block) {
	fmt.Printf("%s\tblock %d\t%s\tby %s\n", label, b.Index,
		b.Timestamp.Format(time.RFC3339), b.Actor)
	if len(b.Payload) > 0 {
		var pretty map[string]any
		if err := json.Unmarshal(b.Payload, &pretty); err == nil {
			for k, v := range pretty {
				fmt.Printf("\t  %s: %v\n", k, v)
			}
		}
	}
}

// ── explorer ─────────────────────────────────────────────────────────────────

var explorerCmd = &cobra.Command{
	Use:   "explorer",
	Short: "Dump the raw block chain",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, _ := cmd.Flags().GetInt64("from")
		to, _ := cmd.Flags().GetInt64("to")

		ctx, cancel := cmdContext()
		defer cancel()

		blocks, err := api().Explorer(ctx, from, to)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "IDX\tKIND\tPRODUCT\tACTOR\tHASH")
		for _, b := range blocks {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
				b.Index, b.Kind, b.ProductID, b.Actor, short(b.Hash))
		}
		return w.Flush()
	},
}

// ── verify ───────────────────────────────────────────────────────────────────

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the chain's hash integrity",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cmdContext()
		defer cancel()

		result, err := api().VerifyLedger(ctx)
		if err != nil {
			return err
		}
		if !result.Valid {
			return fmt.Errorf("chain INVALID: %s", result.Error)
		}

		overview, err := api().LedgerOverview(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("chain valid — %d blocks, root %s\n", overview.Blocks, short(overview.Root))
		return nil
	},
}

// ── reset ────────────────────────────────────────────────────────────────────

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the chain to a fresh genesis (admin only, destroys all products)",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			return fmt.Errorf("reset destroys all blocks and products; re-run with --yes to confirm")
		}

		ctx, cancel := cmdContext()
		defer cancel()

		genesis, err := api().ResetLedger(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("chain reset — genesis at %s\n", genesis.Timestamp.Format(time.RFC3339))
		return nil
	},
}

// ── version ──────────────────────────────────────────────────────────────────

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the agroctl version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("agroctl", version)
	},
}

func init() {
	registerCmd.Flags().String("role", "farmer", "actor role: farmer, broker, or consumer")
	registerCmd.Flags().String("name", "", "display name")
	registerCmd.Flags().String("password", "", "password (min 8 characters)")
	_ = registerCmd.MarkFlagRequired("password")

	loginCmd.Flags().String("password", "", "password")
	_ = loginCmd.MarkFlagRequired("password")

	listCmd.Flags().String("id", "", "product id (generated when omitted)")
	listCmd.Flags().Float64("quantity", 0, "quantity in kilograms")
	listCmd.Flags().Float64("price", 0, "price per kilogram")
	_ = listCmd.MarkFlagRequired("quantity")
	_ = listCmd.MarkFlagRequired("price")

	productsCmd.Flags().String("status", "", "filter by status: listed or sold")

	orderCmd.Flags().String("buyer", "", "buyer actor id (defaults to the logged-in broker)")

	explorerCmd.Flags().Int64("from", -1, "first block index")
	explorerCmd.Flags().Int64("to", -1, "last block index")

	resetCmd.Flags().Bool("yes", false, "confirm the reset")
}

func short(hash string) string {
	if len(hash) <= 12 {
		return hash
	}
	return hash[:12] + "…"
}
