package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// assignID fills a zero primary key before insert so rows carry an id on
// every dialect, including sqlite which has no gen_random_uuid().
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (a *RetailerAccount) BeforeCreate(*gorm.DB) error   { assignID(&a.ID); return nil }
func (p *Product) BeforeCreate(*gorm.DB) error           { assignID(&p.ID); return nil }
func (t *PricingTier) BeforeCreate(*gorm.DB) error       { assignID(&t.ID); return nil }
func (o *Order) BeforeCreate(*gorm.DB) error             { assignID(&o.ID); return nil }
func (i *OrderItem) BeforeCreate(*gorm.DB) error         { assignID(&i.ID); return nil }
func (e *CreditLedgerEntry) BeforeCreate(*gorm.DB) error { assignID(&e.ID); return nil }
func (e *OutboxEvent) BeforeCreate(*gorm.DB) error       { assignID(&e.ID); return nil }
