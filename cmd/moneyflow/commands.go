package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"moneyflow/internal/domain/currency"
	"moneyflow/internal/domain/importrule"
	"moneyflow/internal/domain/money"
)

// secretMetaKey is the parser option holding a sealed PDF secret.
const secretMetaKey = "secret"

func (a *app) newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDeps(cmd, func(ctx context.Context, d *Dependencies) error {
				if err := d.DB.Migrate(ctx); err != nil {
					return err
				}
				log.Info("Schema up to date")
				return nil
			})
		},
	}
}

func (a *app) newImportCommand() *cobra.Command {
	var accountID, file string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a statement file into an account's ledger",
		Example: `  moneyflow import --account acc-1 --file statement.csv
  cat statement.json | moneyflow import --account acc-1 --file -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			return a.withDeps(cmd, func(ctx context.Context, d *Dependencies) error {
				ctx, cancel := context.WithTimeout(ctx, timeout)
				defer cancel()

				result, err := d.LedgerService.ImportFile(ctx, accountID, data)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "\n=== Account %s ===\n", result.AccountID)
				fmt.Fprintf(out, "  Window:       %s .. %s\n", result.From.Format(time.RFC3339), result.To.Format(time.RFC3339))
				fmt.Fprintf(out, "  Added:        %d\n", result.AddedCount())
				fmt.Fprintf(out, "  Replaced:     %d\n", result.RemovedCount())
				fmt.Fprintf(out, "  Uncountable:  %d\n", result.Uncountable)
				for _, r := range result.Removed {
					fmt.Fprintf(out, "    - replaced %s  %s  %d %s\n", r.OccurredAt.Format(time.DateOnly), r.Description, r.AmountMinorUnits, r.Currency)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "account ID (required)")
	cmd.Flags().StringVar(&file, "file", "", "statement file, - for stdin (required)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "timeout for the import")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func (a *app) newRecalculateCommand() *cobra.Command {
	var familyID, base string
	var groupSize int
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "recalculate",
		Short: "Change a family's base currency and re-express every ledger row in it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := currency.Normalize(base)
			if err != nil {
				return err
			}
			if groupSize <= 0 {
				groupSize = a.cfg.Import.RecalcGroupSize
			}

			return a.withDeps(cmd, func(ctx context.Context, d *Dependencies) error {
				ctx, cancel := context.WithTimeout(ctx, timeout)
				defer cancel()

				if err := d.AccountRepo.SetFamilyBaseCurrency(ctx, familyID, code); err != nil {
					return err
				}

				log.Info("Starting base currency recalculation", "family", familyID, "base", code, "group_size", groupSize)
				result, err := d.Recalculator(groupSize).Recalculate(ctx, familyID, code)
				if result != nil {
					printRecalcResult(cmd.OutOrStdout(), result)
				}
				if err != nil {
					return fmt.Errorf("recalculation interrupted, rerun to resume: %w", err)
				}
				if result.Failed > 0 {
					return fmt.Errorf("%d rows could not be converted, rerun to retry them", result.Failed)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&familyID, "family", "", "family ID (required)")
	cmd.Flags().StringVar(&base, "base", "", "new base currency, ISO 4217 (required)")
	cmd.Flags().IntVar(&groupSize, "group-size", 0, "concurrent conversions per group (default RECALC_GROUP_SIZE)")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Minute, "timeout for the operation")
	_ = cmd.MarkFlagRequired("family")
	_ = cmd.MarkFlagRequired("base")

	return cmd
}

func printRecalcResult(w io.Writer, result *money.RecalcResult) {
	fmt.Fprintf(w, "\n=== Family %s ===\n", result.FamilyID)
	fmt.Fprintf(w, "  Rows checked:  %d\n", result.Total)
	fmt.Fprintf(w, "  Rows updated:  %d\n", result.Updated)
	fmt.Fprintf(w, "  Duration:      %v\n", result.Duration.Round(time.Millisecond))

	if len(result.Errors) > 0 {
		fmt.Fprintf(w, "  Errors:        %d\n", result.Failed)
		for i, e := range result.Errors {
			if i >= 5 {
				fmt.Fprintf(w, "    ... and %d more errors\n", len(result.Errors)-5)
				break
			}
			fmt.Fprintf(w, "    - %s\n", e)
		}
	}
}

func (a *app) newRulesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage per-account import rules",
	}

	var accountID string
	cmd.PersistentFlags().StringVar(&accountID, "account", "", "account ID (required)")
	_ = cmd.MarkPersistentFlagRequired("account")

	var kind, pattern string
	add := &cobra.Command{
		Use:   "add",
		Short: "Add an import rule",
		Example: `  moneyflow rules add --account acc-1 --kind mark_uncountable --pattern '(?i)internal transfer'
  moneyflow rules add --account acc-1 --kind strip_substring --pattern 'POS \d+ '`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDeps(cmd, func(ctx context.Context, d *Dependencies) error {
				rule, err := d.RuleService.CreateRule(ctx, importrule.CreateRuleParams{
					AccountID: accountID,
					Kind:      importrule.Kind(kind),
					Pattern:   pattern,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created rule %d\n", rule.ID)
				return nil
			})
		},
	}
	add.Flags().StringVar(&kind, "kind", "", "mark_uncountable or strip_substring (required)")
	add.Flags().StringVar(&pattern, "pattern", "", "regular expression (required)")
	_ = add.MarkFlagRequired("kind")
	_ = add.MarkFlagRequired("pattern")

	list := &cobra.Command{
		Use:   "list",
		Short: "List import rules in application order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDeps(cmd, func(ctx context.Context, d *Dependencies) error {
				rules, err := d.RuleService.ListRules(ctx, accountID)
				if err != nil {
					return err
				}
				printRules(cmd.OutOrStdout(), rules)
				return nil
			})
		},
	}

	var ruleID int64
	del := &cobra.Command{
		Use:   "delete",
		Short: "Delete an import rule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDeps(cmd, func(ctx context.Context, d *Dependencies) error {
				if err := d.RuleService.DeleteRule(ctx, accountID, ruleID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted rule %d\n", ruleID)
				return nil
			})
		},
	}
	del.Flags().Int64Var(&ruleID, "id", 0, "rule ID (required)")
	_ = del.MarkFlagRequired("id")

	cmd.AddCommand(add, list, del)
	return cmd
}

func printRules(w io.Writer, rules []*importrule.Rule) {
	if len(rules) == 0 {
		fmt.Fprintln(w, "No import rules")
		return
	}
	for _, r := range rules {
		fmt.Fprintf(w, "%6d  %-16s  %s\n", r.ID, r.Kind, r.Pattern)
	}
}

func (a *app) newSecretCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Manage sealed statement secrets",
	}

	var accountID, secretFile string
	seal := &cobra.Command{
		Use:     "seal",
		Short:   "Seal a PDF statement secret and store it on the account",
		Example: `  printf '%s' "$PDF_PASSWORD" | moneyflow secret seal --account acc-1 --file -`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd.InOrStdin(), secretFile)
			if err != nil {
				return err
			}
			secret := strings.TrimRight(string(raw), "\r\n")
			if secret == "" {
				return errors.New("secret is empty")
			}

			return a.withDeps(cmd, func(ctx context.Context, d *Dependencies) error {
				if d.Encryptor == nil {
					return errors.New("ENCRYPTION_KEY is required to seal secrets")
				}
				sealed, err := d.Encryptor.Encrypt(secret)
				if err != nil {
					return err
				}
				if err := d.AccountRepo.SetParserOption(ctx, accountID, secretMetaKey, sealed); err != nil {
					return err
				}
				log.Info("Statement secret sealed", "account", accountID)
				return nil
			})
		},
	}
	seal.Flags().StringVar(&accountID, "account", "", "account ID (required)")
	seal.Flags().StringVar(&secretFile, "file", "-", "file holding the secret, - for stdin")
	_ = seal.MarkFlagRequired("account")

	cmd.AddCommand(seal)
	return cmd
}

// readInput reads path, or r when path is "-".
func readInput(r io.Reader, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
