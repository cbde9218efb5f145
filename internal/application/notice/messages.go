package notice

import (
	"fmt"
	"time"
)

// Default display times
const (
	DefaultAddedTTL   = 3 * time.Second
	DefaultSuccessTTL = 5 * time.Second
	DefaultWarningTTL = 3 * time.Second
)

// ItemAdded confirms a product joined the cart
func ItemAdded(name string) Notice {
	return Notice{Kind: KindSuccess, Message: fmt.Sprintf("%s ha sido añadido al carrito", name)}
}

// PurchaseSucceeded is shown once after checkout
func PurchaseSucceeded(orderRef string) Notice {
	n := Notice{
		Kind:    KindSuccess,
		Title:   "¡Compra exitosa!",
		Message: "Gracias por tu compra. Tu pedido ha sido procesado correctamente.",
	}
	if orderRef != "" {
		n.Message += " Referencia: " + orderRef + "."
	}
	return n
}

// CartEmpty warns that checkout needs at least one product
func CartEmpty() Notice {
	return Notice{Kind: KindWarning, Message: "Tu carrito está vacío. Agrega productos antes de proceder al pago."}
}

// StorageUnavailable reports a change that could not be saved
func StorageUnavailable() Notice {
	return Notice{Kind: KindDanger, Message: "No pudimos guardar tu carrito. Inténtalo de nuevo en unos segundos."}
}

// ProductUnavailable reports a card that is no longer in the catalog
func ProductUnavailable() Notice {
	return Notice{Kind: KindWarning, Message: "Este producto ya no está disponible."}
}
