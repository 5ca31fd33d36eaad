package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/fekuna/omnipos-checkout-service/internal/checkout/dto"
	"github.com/fekuna/omnipos-checkout-service/internal/model"
)

type CheckoutOptions struct {
	*RootOptions
	Items []string
	Total string
}

func NewCheckoutCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckoutOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Sell a cart",
		Long: `Submit a cart to the checkout service. When the service cannot be
reached the cart is queued locally and replayed on the next sync.

Examples:
  posclient checkout --item p1:2:18000 --item p2:1:8000
  posclient checkout --item p1:1:18000:"Kopi Susu" --total 18000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckout(cmd, opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Items, "item", nil, "cart line as id:qty:price[:name] (repeatable)")
	_ = cmd.MarkFlagRequired("item")
	cmd.Flags().StringVar(&opts.Total, "total", "", "total to charge (defaults to the sum of the lines)")

	return cmd
}

// ParseItem reads "id:qty:price[:name]".
func ParseItem(s string) (model.CartItem, error) {
	parts := strings.SplitN(s, ":", 4)
	if len(parts) < 3 {
		return model.CartItem{}, fmt.Errorf("item %q: want id:qty:price[:name]", s)
	}
	qty, err := strconv.Atoi(parts[1])
	if err != nil {
		return model.CartItem{}, fmt.Errorf("item %q: quantity: %w", s, err)
	}
	price, err := decimal.NewFromString(parts[2])
	if err != nil {
		return model.CartItem{}, fmt.Errorf("item %q: price: %w", s, err)
	}
	item := model.CartItem{ProductID: parts[0], Quantity: qty, Price: price}
	if len(parts) == 4 {
		item.Name = parts[3]
	}
	return item, nil
}

func runCheckout(cmd *cobra.Command, opts *CheckoutOptions) error {
	items := make([]model.CartItem, 0, len(opts.Items))
	for _, raw := range opts.Items {
		item, err := ParseItem(raw)
		if err != nil {
			return err
		}
		items = append(items, item)
	}

	total := model.CartItems(items).Sum()
	if opts.Total != "" {
		var err error
		if total, err = decimal.NewFromString(opts.Total); err != nil {
			return fmt.Errorf("total: %w", err)
		}
	}

	ctx := context.Background()
	s, err := openSession(ctx, opts.RootOptions)
	if err != nil {
		return err
	}
	defer s.Close()

	if _, err := s.start(ctx, opts.RootOptions); err != nil {
		return err
	}

	txn, err := s.terminal.Checkout(ctx, &dto.CreateTransactionRequest{
		TenantID: opts.TenantID,
		Total:    total,
		Items:    items,
	})
	if err != nil {
		return err
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), txn)
	}
	state := "recorded"
	if txn.IsOffline {
		state = "queued offline"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Transaction %s %s, total %s\n", txn.ID, state, txn.Total.StringFixed(2))
	return nil
}
