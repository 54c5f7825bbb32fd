package commands

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	pkgerrors "cogmap/pkg/errors"
)

// Commands are user intents. They are requests to the mutation authority
// and carry no reference to the local tree: nothing here can mutate it.

// AddNodeCommand asks the authority to create a child of ParentID
type AddNodeCommand struct {
	Label    string `json:"label" validate:"required,max=1000"`
	ParentID string `json:"parent_id" validate:"required"`
}

// DeleteNodeCommand asks the authority to delete NodeID and its subtree
type DeleteNodeCommand struct {
	NodeID string `json:"node_id" validate:"required"`
}

// RenameNodeCommand asks the authority to relabel NodeID
type RenameNodeCommand struct {
	NodeID string `json:"node_id" validate:"required"`
	Label  string `json:"label" validate:"required,max=1000"`
}

// AskQuestionCommand sends a chat question anchored at CurrentNodeID
type AskQuestionCommand struct {
	Question      string `json:"question" validate:"required"`
	CurrentNodeID string `json:"current_node_id" validate:"required"`
}

// NewAddNodeCommand trims the label before validation
func NewAddNodeCommand(label, parentID string) AddNodeCommand {
	return AddNodeCommand{Label: strings.TrimSpace(label), ParentID: parentID}
}

// NewRenameNodeCommand trims the label before validation
func NewRenameNodeCommand(nodeID, label string) RenameNodeCommand {
	return RenameNodeCommand{NodeID: nodeID, Label: strings.TrimSpace(label)}
}

// NewAskQuestionCommand trims the question before validation
func NewAskQuestionCommand(question, currentNodeID string) AskQuestionCommand {
	return AskQuestionCommand{Question: strings.TrimSpace(question), CurrentNodeID: currentNodeID}
}

func (c AddNodeCommand) Validate() error     { return validate(c) }
func (c DeleteNodeCommand) Validate() error  { return validate(c) }
func (c RenameNodeCommand) Validate() error  { return validate(c) }
func (c AskQuestionCommand) Validate() error { return validate(c) }

var (
	instance *validator.Validate
	once     sync.Once
)

func getValidator() *validator.Validate {
	once.Do(func() {
		instance = validator.New()
		instance.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return instance
}

func validate(cmd interface{}) error {
	if err := getValidator().Struct(cmd); err != nil {
		var fields []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				fields = append(fields, fe.Field()+" "+fe.Tag())
			}
		} else {
			fields = append(fields, err.Error())
		}
		return pkgerrors.NewValidation("invalid command: " + strings.Join(fields, ", "))
	}
	return nil
}
