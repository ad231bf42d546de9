package commands

import (
	"context"

	"github.com/marshallshelly/storefront/cmd/storefront/output"
	"github.com/marshallshelly/storefront/pkg/domain"
	"github.com/marshallshelly/storefront/pkg/postgres"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// seedCmd loads a small sample catalog and one customer
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a small sample catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		db, _, err := connect(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		catalog := postgres.NewCatalogStore(db)
		party := postgres.NewPartyStore(db)

		category, err := catalog.CreateCategory(ctx, "Bebidas")
		if err != nil {
			return err
		}

		email := "ventas@frescor.example"
		supplier, err := catalog.CreateSupplier(ctx, domain.Supplier{
			Name:  "Distribuidora Frescor",
			Email: &email,
		})
		if err != nil {
			return err
		}

		products := []domain.Product{
			{Name: "Café de grano 500g", UnitPrice: decimal.RequireFromString("9.99"), StockQuantity: 25},
			{Name: "Té verde 20 sobres", UnitPrice: decimal.RequireFromString("4.50"), StockQuantity: 40},
			{Name: "Chocolate caliente 400g", UnitPrice: decimal.RequireFromString("6.75"), StockQuantity: 15},
		}
		for _, p := range products {
			p.CategoryID = &category.ID
			p.SupplierID = &supplier.ID
			created, err := catalog.CreateProduct(ctx, p)
			if err != nil {
				return err
			}
			output.Info("product %d: %s (%s, stock %d)", created.ID, created.Name, created.UnitPrice, created.StockQuantity)
		}

		customerEmail := "ana.garcia@example.com"
		customer, err := party.CreateCustomer(ctx, domain.Customer{
			FirstName: "Ana",
			LastName:  "García",
			Email:     &customerEmail,
		})
		if err != nil {
			return err
		}
		output.Info("customer %d: %s", customer.ID, customer.FullName())

		output.Success("sample data loaded")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
