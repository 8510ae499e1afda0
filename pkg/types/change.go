package types

import "time"

// ChangeTransaction is a row of tnf_change_transaction.
type ChangeTransaction struct {
	OID          string
	Name         string
	CreationTime time.Time
	Creator      string
	Remark       string
}

// Change is a row of tnf_change.
type Change struct {
	OID                  string
	ClassID              string
	ChangeTransactionOID string
	OrderNumber          int32
	ChangeType           int32
	ChangeReason         string
	Timestamp            time.Time
	OldVID               string
	NewVID               string
	CreatorID            string
	Remark               string
}

// Area is a row of tnf_area. Shape holds a GeoPackage POLYGON blob.
type Area struct {
	OID   string
	Name  string
	Shape []byte
}

// Task is a row of tnf_task.
type Task struct {
	OID             string
	ExternalID      string
	AreaOID         string
	TaskType        string
	EditableNetwork string
}

// TaskEditableType is a row of tnf_task_editable_type.
type TaskEditableType struct {
	TaskOID               string
	CatalogueOID          string
	PropertyObjectTypeOID string
}

// ToDoListMessage is a row of tnf_todo_list_message.
type ToDoListMessage struct {
	OID      string
	Severity int32
	Message  string
}

// ToDoListDetails is a row of tnf_todo_list_details.
type ToDoListDetails struct {
	MessageOID string
	Type       string
	Value      string
}
