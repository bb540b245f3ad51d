package models

import "time"

// ToDoItem is a row of todo_items. Its JSON form is what create returns.
type ToDoItem struct {
	TodoID     int64  `json:"TodoId"`
	Action     string `json:"Action"`
	Done       bool   `json:"Done"`
	CategoryID int64  `json:"CategoryId"`
}

// Category is a row of categories.
type Category struct {
	CategoryID  int64
	Name        string
	Description string
}

// ToDoItemView is the API shape of a todo joined with its category. Clients
// send the same shape on create and update; Category is ignored on input.
type ToDoItemView struct {
	ToDoID     int64         `json:"ToDoId"`
	Action     string        `json:"Action" binding:"required"`
	Done       bool          `json:"Done"`
	CategoryID int64         `json:"CategoryId"`
	Category   *CategoryView `json:"Category"`
}

// CategoryView is the nested category inside a ToDoItemView.
type CategoryView struct {
	CategoryID          int64  `json:"CategoryId"`
	CategoryName        string `json:"CategoryName"`
	CategoryDescription string `json:"CategoryDescription"`
}

// NewToDoItemView projects a todo row and its joined category row.
func NewToDoItemView(item ToDoItem, cat Category) ToDoItemView {
	c := NewCategoryView(cat)
	return ToDoItemView{
		ToDoID:     item.TodoID,
		Action:     item.Action,
		Done:       item.Done,
		CategoryID: item.CategoryID,
		Category:   &c,
	}
}

// NewCategoryView projects a category row.
func NewCategoryView(cat Category) CategoryView {
	return CategoryView{
		CategoryID:          cat.CategoryID,
		CategoryName:        cat.Name,
		CategoryDescription: cat.Description,
	}
}

// Item copies the four scalar fields of the view into a new entity.
func (v ToDoItemView) Item() ToDoItem {
	return ToDoItem{
		TodoID:     v.ToDoID,
		Action:     v.Action,
		Done:       v.Done,
		CategoryID: v.CategoryID,
	}
}

// Event types published after a committed write.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// ToDoEvent is the Kafka payload describing a committed write.
type ToDoEvent struct {
	Type       string    `json:"type"` // created, updated, deleted
	TodoID     int64     `json:"todo_id"`
	Item       *ToDoItem `json:"item,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
