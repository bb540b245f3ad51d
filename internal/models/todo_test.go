package models

import (
	"encoding/json"
	"testing"
)

func TestNewToDoItemViewProjectsCategory(t *testing.T) {
	item := ToDoItem{TodoID: 7, Action: "buy milk", Done: true, CategoryID: 3}
	cat := Category{CategoryID: 3, Name: "Errands", Description: "Out of the house"}

	v := NewToDoItemView(item, cat)

	if v.ToDoID != 7 || v.Action != "buy milk" || !v.Done || v.CategoryID != 3 {
		t.Fatalf("scalar fields not copied: %+v", v)
	}
	want := CategoryView{CategoryID: 3, CategoryName: "Errands", CategoryDescription: "Out of the house"}
	if v.Category == nil || *v.Category != want {
		t.Fatalf("Category = %+v, want %+v", v.Category, want)
	}
	if v.Item() != item {
		t.Fatalf("Item() = %+v, want %+v", v.Item(), item)
	}
}

func TestViewWireNames(t *testing.T) {
	v := NewToDoItemView(ToDoItem{TodoID: 1, Action: "a", CategoryID: 2}, Category{CategoryID: 2, Name: "n", Description: "d"})
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"ToDoId":1,"Action":"a","Done":false,"CategoryId":2,"Category":{"CategoryId":2,"CategoryName":"n","CategoryDescription":"d"}}`
	if string(b) != want {
		t.Fatalf("got  %s\nwant %s", b, want)
	}

	b, err = json.Marshal(v.Item())
	if err != nil {
		t.Fatal(err)
	}
	if want := `{"TodoId":1,"Action":"a","Done":false,"CategoryId":2}`; string(b) != want {
		t.Fatalf("got  %s\nwant %s", b, want)
	}
}
