package domain

type Product struct {
	ID    int64
	Title string
	Price int64 // minor currency units
}
