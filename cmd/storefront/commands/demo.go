package commands

import (
	"context"

	"github.com/marshallshelly/storefront/cmd/storefront/output"
	"github.com/marshallshelly/storefront/pkg/cache"
	"github.com/marshallshelly/storefront/pkg/commerce"
	"github.com/marshallshelly/storefront/pkg/domain"
	"github.com/marshallshelly/storefront/pkg/postgres"
	"github.com/spf13/cobra"
)

var (
	demoCustomerID int64
	demoProductID  int64
	demoQuantity   int
)

// demoCmd runs a full cart-to-sale checkout
var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a full cart-to-sale checkout",
	Long: `Walk one order through its whole lifecycle: add a product to the
customer's cart, place the order (reserving stock), advance it to
completed and record the sale.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		db, cfg, err := connect(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		service := commerce.NewService(
			db,
			postgres.NewCatalogStore(db),
			postgres.NewCartStore(db),
			postgres.NewOrderStore(db),
			postgres.NewSaleStore(db),
		)
		if cfg.RedisAddr != "" {
			products, err := cache.New(ctx, cfg.RedisAddr)
			if err != nil {
				output.Warning("product cache disabled: %v", err)
			} else {
				defer products.Close()
				service.WithProductCache(products)
				output.Muted("product cache enabled at %s", cfg.RedisAddr)
			}
		}

		output.Section("Checkout demo")

		line, err := service.AddToCart(ctx, demoCustomerID, demoProductID, demoQuantity)
		if err != nil {
			return err
		}
		output.Info("cart %d: %d x product %d at %s", line.CartID, line.Quantity, line.ProductID, line.UnitPriceSnapshot)

		order, err := service.PlaceOrder(ctx, demoCustomerID)
		if err != nil {
			return err
		}
		output.Info("order %d placed: total %s, status %s", order.ID, order.Total, order.Status)

		for _, next := range []domain.OrderStatus{domain.StatusProcessing, domain.StatusShipped, domain.StatusCompleted} {
			if order, err = service.AdvanceOrderStatus(ctx, order.ID, next); err != nil {
				return err
			}
			output.Muted("order %d -> %s", order.ID, order.Status)
		}

		sale, err := service.RecordSale(ctx, order.ID, domain.PaymentCard)
		if err != nil {
			return err
		}
		output.Success("sale %d recorded: %s paid by %s", sale.ID, sale.TotalAmount, sale.PaymentMethod)
		return nil
	},
}

func init() {
	demoCmd.Flags().Int64Var(&demoCustomerID, "customer", 1, "Customer id")
	demoCmd.Flags().Int64Var(&demoProductID, "product", 1, "Product id")
	demoCmd.Flags().IntVar(&demoQuantity, "quantity", 2, "Quantity to add to the cart")
	rootCmd.AddCommand(demoCmd)
}
