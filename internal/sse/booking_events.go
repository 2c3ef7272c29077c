package sse

import (
	"context"
	"sync"

	"ms-booking/internal/models"
)

// BookingEventEmitter manages SSE connections and event broadcasting for
// booking lifecycle events. Buyers watch their own bookings; vendors watch
// the requests coming in against their inventory.
type BookingEventEmitter struct {
	// Buyer channel clients map - key: buyer email, value: slice of client channels
	buyerClients     map[string][]chan models.Booking
	buyerClientMutex sync.RWMutex

	// Vendor channel clients map - key: vendor email, value: slice of client channels
	vendorClients     map[string][]chan models.Booking
	vendorClientMutex sync.RWMutex
}

// NewBookingEventEmitter creates a new SSE event emitter for booking events
func NewBookingEventEmitter() *BookingEventEmitter {
	return &BookingEventEmitter{
		buyerClients:  make(map[string][]chan models.Booking),
		vendorClients: make(map[string][]chan models.Booking),
	}
}

// SubscribeBuyer adds a client to a buyer's booking events
func (e *BookingEventEmitter) SubscribeBuyer(ctx context.Context, email string) chan models.Booking {
	clientChan := make(chan models.Booking, 10)

	e.buyerClientMutex.Lock()
	e.buyerClients[email] = append(e.buyerClients[email], clientChan)
	e.buyerClientMutex.Unlock()

	// Remove client when context is done
	go func() {
		<-ctx.Done()
		e.removeBuyerClient(email, clientChan)
	}()

	return clientChan
}

// SubscribeVendor adds a client to a vendor's incoming booking events
func (e *BookingEventEmitter) SubscribeVendor(ctx context.Context, email string) chan models.Booking {
	clientChan := make(chan models.Booking, 10)

	e.vendorClientMutex.Lock()
	e.vendorClients[email] = append(e.vendorClients[email], clientChan)
	e.vendorClientMutex.Unlock()

	go func() {
		<-ctx.Done()
		e.removeVendorClient(email, clientChan)
	}()

	return clientChan
}

// BuyerSubscriberCount reports how many clients watch a buyer's bookings.
func (e *BookingEventEmitter) BuyerSubscriberCount(email string) int {
	e.buyerClientMutex.RLock()
	defer e.buyerClientMutex.RUnlock()
	return len(e.buyerClients[email])
}

// VendorSubscriberCount reports how many clients watch a vendor's requests.
func (e *BookingEventEmitter) VendorSubscriberCount(email string) int {
	e.vendorClientMutex.RLock()
	defer e.vendorClientMutex.RUnlock()
	return len(e.vendorClients[email])
}

// EmitBookingEvent broadcasts a booking change to the buyer's and the
// vendor's subscribers. Slow clients are skipped, never blocked on.
func (e *BookingEventEmitter) EmitBookingEvent(booking models.Booking) {
	e.buyerClientMutex.RLock()
	for _, clientChan := range e.buyerClients[booking.BuyerEmail] {
		select {
		case clientChan <- booking:
		default:
		}
	}
	e.buyerClientMutex.RUnlock()

	e.vendorClientMutex.RLock()
	for _, clientChan := range e.vendorClients[booking.VendorEmail] {
		select {
		case clientChan <- booking:
		default:
		}
	}
	e.vendorClientMutex.RUnlock()
}

func (e *BookingEventEmitter) removeBuyerClient(email string, clientChan chan models.Booking) {
	e.buyerClientMutex.Lock()
	defer e.buyerClientMutex.Unlock()

	clients := e.buyerClients[email]
	for i, ch := range clients {
		if ch == clientChan {
			e.buyerClients[email] = append(clients[:i], clients[i+1:]...)
			close(ch)
			break
		}
	}
	if len(e.buyerClients[email]) == 0 {
		delete(e.buyerClients, email)
	}
}

func (e *BookingEventEmitter) removeVendorClient(email string, clientChan chan models.Booking) {
	e.vendorClientMutex.Lock()
	defer e.vendorClientMutex.Unlock()

	clients := e.vendorClients[email]
	for i, ch := range clients {
		if ch == clientChan {
			e.vendorClients[email] = append(clients[:i], clients[i+1:]...)
			close(ch)
			break
		}
	}
	if len(e.vendorClients[email]) == 0 {
		delete(e.vendorClients, email)
	}
}
