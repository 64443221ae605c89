package model

import "encoding/json"

type SequenceState struct {
	sequenceName     string
	dataType         string
	remainingPercent float64
}

func NewSequenceState(sequenceName, dataType string, remainingPercent float64) SequenceState {
	return SequenceState{sequenceName: sequenceName, dataType: dataType, remainingPercent: remainingPercent}
}

func (s SequenceState) Name() string                 { return s.sequenceName }
func (s SequenceState) ObjectType() ObjectType       { return ObjectSequence }
func (s SequenceState) SequenceName() string         { return s.sequenceName }
func (s SequenceState) DataType() string             { return s.dataType }
func (s SequenceState) RemainingPercentage() float64 { return s.remainingPercent }

func (s SequenceState) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		SequenceName        string  `json:"sequence_name"`
		DataType            string  `json:"data_type"`
		RemainingPercentage float64 `json:"remaining_percentage"`
	}{s.sequenceName, s.dataType, s.remainingPercent})
}

type StoredFunction struct {
	functionName string
	signature    string
}

func NewStoredFunction(functionName, signature string) StoredFunction {
	return StoredFunction{functionName: functionName, signature: signature}
}

func (f StoredFunction) Name() string           { return f.functionName }
func (f StoredFunction) ObjectType() ObjectType { return ObjectFunction }
func (f StoredFunction) Signature() string      { return f.signature }

func (f StoredFunction) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		FunctionName string `json:"function_name"`
		Signature    string `json:"function_signature"`
	}{f.functionName, f.signature})
}

// AnyObject is a database object identified only by name and kind.
type AnyObject struct {
	objectName string
	objectType ObjectType
}

func NewAnyObject(objectName string, objectType ObjectType) AnyObject {
	return AnyObject{objectName: objectName, objectType: objectType}
}

func (o AnyObject) Name() string           { return o.objectName }
func (o AnyObject) ObjectType() ObjectType { return o.objectType }

func (o AnyObject) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ObjectName string     `json:"object_name"`
		ObjectType ObjectType `json:"object_type"`
	}{o.objectName, o.objectType})
}
