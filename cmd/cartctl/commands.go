package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	appcart "github.com/trendstep/storefront/internal/application/cart"
	"github.com/trendstep/storefront/internal/application/notice"
	"github.com/trendstep/storefront/internal/domain/cart"
	"github.com/trendstep/storefront/internal/domain/shared/valueobject"
	"github.com/trendstep/storefront/internal/infrastructure/printing"
	"github.com/trendstep/storefront/internal/interfaces/tui"
)

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show the cart lines",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printCart(cmd.OutOrStdout(), env.store.Cart())
			return nil
		},
	}
}

func summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show item count, subtotal, shipping and total",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printSummary(cmd.OutOrStdout(), env.store.Summary())
			return nil
		},
	}
}

func addCmd() *cobra.Command {
	var (
		name     string
		price    string
		category string
		image    string
		quantity int
	)
	cmd := &cobra.Command{
		Use:   "add [product-key]",
		Short: "Add a catalog product, or an ad-hoc one with --name and --price",
		Long: `Add a product to the cart.

With a product key (see "cartctl catalog") the card is taken from the
catalog. Without one, --name and --price describe the product inline.
Adding a product already in the cart increases its quantity.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var candidate cart.Item
			if len(args) == 1 {
				p, err := env.catalog.Catalog().Lookup(args[0])
				if err != nil {
					return fmt.Errorf("%s: %w", args[0], err)
				}
				candidate = p.Candidate()
			} else {
				if name == "" {
					return errors.New("either a product key or --name is required")
				}
				amount, err := valueobject.ParseAmount(price)
				if err != nil {
					return fmt.Errorf("invalid --price %q: %w", price, err)
				}
				unit, err := valueobject.NewMoney(amount)
				if err != nil {
					return err
				}
				if category == "" {
					category = cart.UnknownCategory
				}
				candidate = cart.Item{Name: name, UnitPrice: unit, Category: category, ImageRef: image, Quantity: 1}
			}

			ctx := cmd.Context()
			c, err := env.store.AddItem(ctx, candidate)
			if err != nil {
				return err
			}
			if quantity > 1 {
				for _, it := range c.Items() {
					if it.Name == strings.TrimSpace(candidate.Name) && it.UnitPrice.Equals(candidate.UnitPrice) {
						if c, err = env.store.SetQuantity(ctx, it.ID, it.Quantity+quantity-1); err != nil {
							return err
						}
						break
					}
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, notice.ItemAdded(candidate.Name).Text())
			printSummary(out, env.store.Summary())
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "product name for an ad-hoc item")
	cmd.Flags().StringVar(&price, "price", "0", "unit price for an ad-hoc item, e.g. 19.99 or $19.99")
	cmd.Flags().StringVar(&category, "category", "", "category for an ad-hoc item")
	cmd.Flags().StringVar(&image, "image", "", "image reference for an ad-hoc item")
	cmd.Flags().IntVarP(&quantity, "quantity", "q", 1, "units to add")
	return cmd
}

func setCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <item-id> <quantity>",
		Short: "Set a line's quantity (values below 1 become 1)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := cart.ParseQuantity(args[1])
			return lineChange(cmd, args[0], func(store *appcart.Store) (cart.Cart, error) {
				return store.SetQuantity(cmd.Context(), args[0], q)
			})
		},
	}
}

func incCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inc <item-id>",
		Short: "Increase a line's quantity by one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return lineChange(cmd, args[0], func(store *appcart.Store) (cart.Cart, error) {
				return store.Increase(cmd.Context(), args[0])
			})
		},
	}
}

func decCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dec <item-id>",
		Short: "Decrease a line's quantity by one, stopping at 1",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return lineChange(cmd, args[0], func(store *appcart.Store) (cart.Cart, error) {
				return store.Decrease(cmd.Context(), args[0])
			})
		},
	}
}

func removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <item-id>",
		Aliases: []string{"rm"},
		Short:   "Remove a line from the cart",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return lineChange(cmd, args[0], func(store *appcart.Store) (cart.Cart, error) {
				return store.RemoveItem(cmd.Context(), args[0])
			})
		},
	}
}

// lineChange applies fn and prints the cart. Unknown ids leave the cart
// unchanged, which is reported on stderr.
func lineChange(cmd *cobra.Command, id string, fn func(*appcart.Store) (cart.Cart, error)) error {
	_, known := env.store.Cart().Find(id)
	c, err := fn(env.store)
	if err != nil {
		return err
	}
	if !known {
		fmt.Fprintf(cmd.ErrOrStderr(), "no line with id %q, cart unchanged\n", id)
	}
	printCart(cmd.OutOrStdout(), c)
	return nil
}

func clearCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart after confirmation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if env.store.Cart().IsEmpty() {
				fmt.Fprintln(cmd.OutOrStdout(), "El carrito ya está vacío.")
				return nil
			}
			if !yes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "¿Seguro que quieres vaciar el carrito? [y/N] ") {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelado.")
				return nil
			}
			if _, err := env.store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Carrito vaciado.")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "s", "si", "sí":
		return true
	}
	return false
}

func checkoutCmd() *cobra.Command {
	var pdfPath string
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Complete a simulated purchase and empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			receipt, err := env.store.Checkout(ctx)
			if err != nil {
				if errors.Is(err, cart.ErrCartEmpty) {
					return errors.New(notice.CartEmpty().Text())
				}
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, notice.PurchaseSucceeded(receipt.OrderRef).Text())
			printSummary(out, receipt.Summary)

			if pdfPath == "" {
				return nil
			}
			pdf, err := printReceipt(cmd, receipt)
			if err != nil {
				return fmt.Errorf("purchase %s completed but the receipt could not be printed: %w", receipt.OrderRef, err)
			}
			if err := os.WriteFile(pdfPath, pdf, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(out, "Recibo guardado en %s\n", pdfPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&pdfPath, "pdf", "", "also write a PDF receipt to this file (needs Chrome)")
	return cmd
}

// receiptRenderer is replaced in tests to avoid launching Chrome.
var receiptRenderer = func() printing.PDFRenderer {
	return printing.NewChromedpRenderer(printing.ChromedpConfig{
		Timeout:   env.cfg.Printing.Timeout,
		RemoteURL: env.cfg.Printing.ChromeURL,
		NoSandbox: env.cfg.Printing.NoSandbox,
		Logger:    env.log,
	})
}

func printReceipt(cmd *cobra.Command, receipt *appcart.Receipt) ([]byte, error) {
	engine, err := printing.NewTemplateEngine(env.localizer)
	if err != nil {
		return nil, err
	}
	renderer := receiptRenderer()
	if c, ok := renderer.(io.Closer); ok {
		defer c.Close()
	}
	return printing.NewReceiptPrinter(engine, renderer).
		Print(cmd.Context(), receipt.OrderRef, receipt.PlacedAt, receipt.Items, receipt.Summary)
}

func catalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the products that can be added by key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t := newTable("KEY", "PRODUCTO", "CATEGORÍA", "PRECIO")
			for _, e := range env.catalog.Catalog().Entries() {
				t.Row(e.Key, e.Product.Name, e.Product.Category, e.Product.Price.Display())
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
}

func tuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse the catalog and edit the cart interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			model := tui.New(cmd.Context(), env.store, env.catalog, env.localizer)
			_, err := tea.NewProgram(model,
				tea.WithAltScreen(),
				tea.WithContext(cmd.Context()),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
			).Run()
			return err
		},
	}
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers(headers...)
}

func printCart(w io.Writer, c cart.Cart) {
	if c.IsEmpty() {
		fmt.Fprintln(w, "Tu carrito está vacío.")
		return
	}
	t := newTable("ID", "PRODUCTO", "PRECIO", "CANT.", "TOTAL")
	for _, it := range c.Items() {
		t.Row(it.ID, it.Name, it.UnitPrice.Display(), strconv.Itoa(it.Quantity), it.LineTotal().Display())
	}
	fmt.Fprintln(w, t.Render())
}

func printSummary(w io.Writer, s cart.Summary) {
	fmt.Fprintf(w, "%s\nSubtotal: %s\nEnvío:    %s\nTotal:    %s\n",
		env.localizer.ItemCount(s.ItemCount), s.Subtotal.Display(), s.Shipping.Display(), s.Total.Display())
}
