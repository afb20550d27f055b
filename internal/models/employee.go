package models

// Employee represents an employee entity.
type Employee struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Surname    string `json:"surname"`
	Department string `json:"department"`
	Salary     int    `json:"salary"`
}
