// This file implements the change log, editing task and to-do list tables.
package sqlite

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/opentnf/tnfpkg/pkg/types"
)

func init() {
	register(tagChangeTransaction, types.ChangeTransactionTable, func(d *Database) (manager, error) { return newChangeTransactionTable(d) })
	register(tagChange, types.ChangeTable, func(d *Database) (manager, error) { return newChangeTable(d) })
	register(tagArea, types.AreaTable, func(d *Database) (manager, error) { return newAreaTable(d) })
	register(tagTask, types.TaskTable, func(d *Database) (manager, error) { return newTaskTable(d) })
	register(tagTaskEditableType, types.TaskEditableTypeTable, func(d *Database) (manager, error) { return newTaskEditableTypeTable(d) })
	register(tagToDoListMessage, types.ToDoListMessageTable, func(d *Database) (manager, error) { return newToDoListMessageTable(d) })
	register(tagToDoListDetails, types.ToDoListDetailsTable, func(d *Database) (manager, error) { return newToDoListDetailsTable(d) })
}

// ChangeTransactionTable manages tnf_change_transaction.
type ChangeTransactionTable struct {
	*EntityTable[types.ChangeTransaction]
}

func newChangeTransactionTable(d *Database) (*ChangeTransactionTable, error) {
	spec := TableSpec{
		Name: types.ChangeTransactionTable,
		Columns: []types.ColumnDescriptor{
			types.NotNull("oid", types.KindString),
			types.NotNull("name", types.KindString),
			types.NotNull("creation_time", types.KindTime),
			types.NotNull("creator", types.KindString),
			types.Col("remark", types.KindString),
		},
		PrimaryKey: "oid",
	}
	et, err := newEntityTable(d, spec,
		func(c *types.ChangeTransaction) []any {
			created := c.CreationTime
			if created.IsZero() {
				created = time.Now().UTC()
			}
			return []any{c.OID, c.Name, created, c.Creator, text(c.Remark)}
		},
		func(r *Record) *types.ChangeTransaction {
			return &types.ChangeTransaction{
				OID:          r.String("oid"),
				Name:         r.String("name"),
				CreationTime: r.Time("creation_time"),
				Creator:      r.String("creator"),
				Remark:       r.String("remark"),
			}
		})
	if err != nil {
		return nil, err
	}
	return &ChangeTransactionTable{et}, nil
}

// assignOID fills an empty oid with a fresh UUID v7.
func assignOID(oid *string) error {
	if *oid != "" {
		return nil
	}
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generating UUID v7: %w", err)
	}
	*oid = id.String()
	return nil
}

// Add inserts c. An empty OID is replaced by a generated one, which is
// written back to c.
func (t *ChangeTransactionTable) Add(c *types.ChangeTransaction) error {
	if err := assignOID(&c.OID); err != nil {
		return err
	}
	return t.EntityTable.Add(c)
}

// Get returns the change transaction with the given oid.
func (t *ChangeTransactionTable) Get(oid string) (*types.ChangeTransaction, error) {
	return t.EntityTable.Get(oid)
}

// Delete removes the change transaction with the given oid.
func (t *ChangeTransactionTable) Delete(oid string) (int64, error) {
	return t.TableManager.Delete(oid)
}

// ChangeTransactions returns the session's tnf_change_transaction manager.
func (d *Database) ChangeTransactions() (*ChangeTransactionTable, error) {
	return lookup[*ChangeTransactionTable](d, tagChangeTransaction)
}

// ChangeTable manages tnf_change. Changes are keyed by their transaction
// and their position in it.
type ChangeTable struct {
	*EntityTable[types.Change]
}

func newChangeTable(d *Database) (*ChangeTable, error) {
	spec := TableSpec{
		Name: types.ChangeTable,
		Columns: []types.ColumnDescriptor{
			types.NotNull("oid", types.KindString),
			types.NotNull("class_id", types.KindString),
			types.NotNull("change_transaction_oid", types.KindString),
			types.NotNull("order_number", types.KindInt32),
			types.NotNull("change_type", types.KindInt32),
			types.NotNull("change_reason", types.KindString),
			types.NotNull("timestamp", types.KindTime),
			types.Col("old_vid", types.KindString),
			types.Col("new_vid", types.KindString),
			types.Col("creator_id", types.KindString),
			types.Col("remark", types.KindString),
		},
		PrimaryKey: "change_transaction_oid, order_number",
		Constraints: []string{
			"CONSTRAINT fk_tc_cto FOREIGN KEY (change_transaction_oid) REFERENCES " + types.ChangeTransactionTable + "(oid)",
		},
	}
	et, err := newEntityTable(d, spec,
		func(c *types.Change) []any {
			ts := c.Timestamp
			if ts.IsZero() {
				ts = time.Now().UTC()
			}
			return []any{c.OID, c.ClassID, c.ChangeTransactionOID, c.OrderNumber, c.ChangeType, c.ChangeReason,
				ts, text(c.OldVID), text(c.NewVID), text(c.CreatorID), text(c.Remark)}
		},
		func(r *Record) *types.Change {
			return &types.Change{
				OID:                  r.String("oid"),
				ClassID:              r.String("class_id"),
				ChangeTransactionOID: r.String("change_transaction_oid"),
				OrderNumber:          r.Int32("order_number"),
				ChangeType:           r.Int32("change_type"),
				ChangeReason:         r.String("change_reason"),
				Timestamp:            r.Time("timestamp"),
				OldVID:               r.String("old_vid"),
				NewVID:               r.String("new_vid"),
				CreatorID:            r.String("creator_id"),
				Remark:               r.String("remark"),
			}
		})
	if err != nil {
		return nil, err
	}
	return &ChangeTable{et}, nil
}

// Add inserts c, generating its OID when empty. The transaction must be
// set; order numbers are the caller's.
func (t *ChangeTable) Add(c *types.Change) error {
	if err := assignOID(&c.OID); err != nil {
		return err
	}
	return t.EntityTable.Add(c)
}

// Get returns change orderNumber of a transaction.
func (t *ChangeTable) Get(transactionOID string, orderNumber int32) (*types.Change, error) {
	return t.EntityTable.Get(transactionOID, orderNumber)
}

// Delete removes one change.
func (t *ChangeTable) Delete(transactionOID string, orderNumber int32) (int64, error) {
	return t.TableManager.Delete(transactionOID, orderNumber)
}

// ByTransaction returns the changes of a transaction in order.
func (t *ChangeTable) ByTransaction(transactionOID string) ([]*types.Change, error) {
	return t.selectWhere("WHERE change_transaction_oid = ? ORDER BY order_number", transactionOID)
}

// Changes returns the session's tnf_change manager.
func (d *Database) Changes() (*ChangeTable, error) {
	return lookup[*ChangeTable](d, tagChange)
}

// AreaTable manages tnf_area, a POLYGON feature table.
type AreaTable struct {
	*EntityTable[types.Area]
}

func newAreaTable(d *Database) (*AreaTable, error) {
	spec := TableSpec{
		Name: types.AreaTable,
		Columns: []types.ColumnDescriptor{
			types.NotNull("oid", types.KindString),
			types.Col("name", types.KindString),
			types.Geometry("shape", types.StoragePolygon),
		},
		PrimaryKey: "oid",
	}
	et, err := newEntityTable(d, spec,
		func(a *types.Area) []any { return []any{a.OID, text(a.Name), blob(a.Shape)} },
		func(r *Record) *types.Area {
			return &types.Area{OID: r.String("oid"), Name: r.String("name"), Shape: r.Bytes("shape")}
		})
	if err != nil {
		return nil, err
	}
	return &AreaTable{et}, nil
}

// Get returns the area with the given oid.
func (t *AreaTable) Get(oid string) (*types.Area, error) {
	return t.EntityTable.Get(oid)
}

// Delete removes the area with the given oid.
func (t *AreaTable) Delete(oid string) (int64, error) {
	return t.TableManager.Delete(oid)
}

// Areas returns the session's tnf_area manager.
func (d *Database) Areas() (*AreaTable, error) {
	return lookup[*AreaTable](d, tagArea)
}

// TaskTable manages tnf_task.
type TaskTable struct {
	*EntityTable[types.Task]
}

func newTaskTable(d *Database) (*TaskTable, error) {
	spec := TableSpec{
		Name: types.TaskTable,
		Columns: []types.ColumnDescriptor{
			types.NotNull("oid", types.KindString),
			types.Col("external_id", types.KindString),
			types.Col("area_oid", types.KindString),
			types.Col("task_type", types.KindString),
			types.Col("editable_network", types.KindString),
		},
		PrimaryKey: "oid",
	}
	et, err := newEntityTable(d, spec,
		func(k *types.Task) []any {
			return []any{k.OID, text(k.ExternalID), text(k.AreaOID), text(k.TaskType), text(k.EditableNetwork)}
		},
		func(r *Record) *types.Task {
			return &types.Task{
				OID:             r.String("oid"),
				ExternalID:      r.String("external_id"),
				AreaOID:         r.String("area_oid"),
				TaskType:        r.String("task_type"),
				EditableNetwork: r.String("editable_network"),
			}
		})
	if err != nil {
		return nil, err
	}
	return &TaskTable{et}, nil
}

// Get returns the task with the given oid.
func (t *TaskTable) Get(oid string) (*types.Task, error) {
	return t.EntityTable.Get(oid)
}

// Delete removes the task with the given oid.
func (t *TaskTable) Delete(oid string) (int64, error) {
	return t.TableManager.Delete(oid)
}

// Tasks returns the session's tnf_task manager.
func (d *Database) Tasks() (*TaskTable, error) {
	return lookup[*TaskTable](d, tagTask)
}

// TaskEditableTypeTable manages tnf_task_editable_type. Every column is
// part of the key.
type TaskEditableTypeTable struct {
	*EntityTable[types.TaskEditableType]
}

func newTaskEditableTypeTable(d *Database) (*TaskEditableTypeTable, error) {
	spec := TableSpec{
		Name: types.TaskEditableTypeTable,
		Columns: []types.ColumnDescriptor{
			types.NotNull("task_oid", types.KindString),
			types.Col("catalogue_oid", types.KindString),
			types.Col("property_object_type_oid", types.KindString),
		},
		PrimaryKey: "task_oid, catalogue_oid, property_object_type_oid",
	}
	et, err := newEntityTable(d, spec,
		func(e *types.TaskEditableType) []any {
			return []any{e.TaskOID, text(e.CatalogueOID), text(e.PropertyObjectTypeOID)}
		},
		func(r *Record) *types.TaskEditableType {
			return &types.TaskEditableType{
				TaskOID:               r.String("task_oid"),
				CatalogueOID:          r.String("catalogue_oid"),
				PropertyObjectTypeOID: r.String("property_object_type_oid"),
			}
		})
	if err != nil {
		return nil, err
	}
	return &TaskEditableTypeTable{et}, nil
}

// ByTask returns the editable types of a task.
func (t *TaskEditableTypeTable) ByTask(taskOID string) ([]*types.TaskEditableType, error) {
	return t.selectWhere("WHERE task_oid = ? ORDER BY rowid", taskOID)
}

// TaskEditableTypes returns the session's tnf_task_editable_type manager.
func (d *Database) TaskEditableTypes() (*TaskEditableTypeTable, error) {
	return lookup[*TaskEditableTypeTable](d, tagTaskEditableType)
}

// ToDoListMessageTable manages tnf_todo_list_message.
type ToDoListMessageTable struct {
	*EntityTable[types.ToDoListMessage]
}

func newToDoListMessageTable(d *Database) (*ToDoListMessageTable, error) {
	spec := TableSpec{
		Name: types.ToDoListMessageTable,
		Columns: []types.ColumnDescriptor{
			types.NotNull("oid", types.KindString),
			types.NotNull("severity", types.KindInt32),
			types.NotNull("message", types.KindString),
		},
		PrimaryKey: "oid",
	}
	et, err := newEntityTable(d, spec,
		func(m *types.ToDoListMessage) []any { return []any{m.OID, m.Severity, m.Message} },
		func(r *Record) *types.ToDoListMessage {
			return &types.ToDoListMessage{
				OID:      r.String("oid"),
				Severity: r.Int32("severity"),
				Message:  r.String("message"),
			}
		})
	if err != nil {
		return nil, err
	}
	return &ToDoListMessageTable{et}, nil
}

// Get returns the message with the given oid.
func (t *ToDoListMessageTable) Get(oid string) (*types.ToDoListMessage, error) {
	return t.EntityTable.Get(oid)
}

// Delete removes the message with the given oid.
func (t *ToDoListMessageTable) Delete(oid string) (int64, error) {
	return t.TableManager.Delete(oid)
}

// ToDoListMessages returns the session's tnf_todo_list_message manager.
func (d *Database) ToDoListMessages() (*ToDoListMessageTable, error) {
	return lookup[*ToDoListMessageTable](d, tagToDoListMessage)
}

// ToDoListDetailsTable manages tnf_todo_list_details. The table has no
// primary key.
type ToDoListDetailsTable struct {
	*EntityTable[types.ToDoListDetails]
}

func newToDoListDetailsTable(d *Database) (*ToDoListDetailsTable, error) {
	spec := TableSpec{
		Name: types.ToDoListDetailsTable,
		Columns: []types.ColumnDescriptor{
			types.Col("message_oid", types.KindString),
			types.NotNull("type", types.KindString),
			types.NotNull("value", types.KindString),
		},
		Constraints: []string{
			"CONSTRAINT fk_ttdld_tdlmo FOREIGN KEY (message_oid) REFERENCES " + types.ToDoListMessageTable + "(oid)",
		},
	}
	et, err := newEntityTable(d, spec,
		func(m *types.ToDoListDetails) []any { return []any{text(m.MessageOID), m.Type, m.Value} },
		func(r *Record) *types.ToDoListDetails {
			return &types.ToDoListDetails{
				MessageOID: r.String("message_oid"),
				Type:       r.String("type"),
				Value:      r.String("value"),
			}
		})
	if err != nil {
		return nil, err
	}
	return &ToDoListDetailsTable{et}, nil
}

// ByMessage returns the details of a message.
func (t *ToDoListDetailsTable) ByMessage(messageOID string) ([]*types.ToDoListDetails, error) {
	return t.selectWhere("WHERE message_oid = ? ORDER BY rowid", messageOID)
}

// DeleteByMessage removes the details of a message.
func (t *ToDoListDetailsTable) DeleteByMessage(messageOID string) (int64, error) {
	return t.deleteWhere("message_oid = ?", messageOID)
}

// ToDoListDetails returns the session's tnf_todo_list_details manager.
func (d *Database) ToDoListDetails() (*ToDoListDetailsTable, error) {
	return lookup[*ToDoListDetailsTable](d, tagToDoListDetails)
}
