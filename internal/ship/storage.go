package ship

import "fmt"

// Storage maps commodity ID to stored amount.
type Storage map[int]int

// Sum is the total amount stored.
func (s Storage) Sum() int {
	total := 0
	for _, amount := range s {
		total += amount
	}
	return total
}

// Amount returns the stored amount and whether the commodity is present at all.
func (s Storage) Amount(commodityID int) (int, bool) {
	amount, ok := s[commodityID]
	return amount, ok && amount > 0
}

// Upper adds to the stored amount.
func (s *Storage) Upper(commodityID, amount int) {
	if amount <= 0 {
		return
	}
	if *s == nil {
		*s = Storage{}
	}
	(*s)[commodityID] += amount
}

// Lower removes from the stored amount; the entry is dropped at zero.
func (s Storage) Lower(commodityID, amount int) error {
	have := s[commodityID]
	if have < amount {
		return fmt.Errorf("lower commodity %d: have %d, need %d", commodityID, have, amount)
	}
	if have == amount {
		delete(s, commodityID)
		return nil
	}
	s[commodityID] = have - amount
	return nil
}
