package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dmitrijs2005/ordersync/internal/models"
)

const timeLayout = "2006-01-02 15:04"

func printOrders(w io.Writer, orders []models.Order) {
	if len(orders) == 0 {
		fmt.Fprintln(w, "No orders")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tSTATUS\tITEMS\tTOTAL\tCUSTOMER")
	for _, o := range orders {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			o.ID, o.CreatedAt.Local().Format(timeLayout), o.Status, len(o.LineItems),
			o.FinalTotal.StringFixed(2), o.Contact.Name)
	}
	_ = tw.Flush()
}

func printCart(w io.Writer, c models.Cart) {
	if c.Empty() {
		fmt.Fprintln(w, "Cart is empty")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRODUCT\tNAME\tQTY\tPRICE")
	for _, it := range c.Items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", it.ProductID, it.Name, it.Quantity, it.UnitPrice.StringFixed(2))
	}
	fmt.Fprintf(tw, "\t\tsubtotal\t%s\n", c.Subtotal().StringFixed(2))
	_ = tw.Flush()
}
