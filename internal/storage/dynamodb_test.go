package storage

import (
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/GB163/student-led-initiative-sub002/internal/types"
)

// The key schema and condition expressions address items by attribute name;
// these tests pin the marshaled names so a struct rename cannot silently
// detach them.

func TestCallRequestAttributeNames(t *testing.T) {
	call := testCall("call-1", types.CallStatusPending, time.Now())

	item, err := attributevalue.MarshalMap(call)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	for _, attr := range []string{"ID", "Status", "CreatedAt", "OriginConnectionID"} {
		if _, ok := item[attr]; !ok {
			t.Errorf("expected attribute %s in marshaled call request", attr)
		}
	}

	id, ok := item["ID"].(*dbtypes.AttributeValueMemberS)
	if !ok || id.Value != "call-1" {
		t.Errorf("expected ID attribute with value call-1, got %v", item["ID"])
	}
	status, ok := item["Status"].(*dbtypes.AttributeValueMemberS)
	if !ok || status.Value != string(types.CallStatusPending) {
		t.Errorf("expected Status attribute with value pending, got %v", item["Status"])
	}
}

func TestChatMessageAttributeNames(t *testing.T) {
	msg := types.ChatMessage{
		ID:           "m1",
		Text:         "hello",
		Role:         types.RoleUser,
		ConnectionID: "c1",
		SentAt:       time.Now(),
	}

	item, err := attributevalue.MarshalMap(msg)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	// ConnectionID and ID are the messages table's key attributes
	connID, ok := item["ConnectionID"].(*dbtypes.AttributeValueMemberS)
	if !ok || connID.Value != "c1" {
		t.Errorf("expected ConnectionID attribute with value c1, got %v", item["ConnectionID"])
	}
	id, ok := item["ID"].(*dbtypes.AttributeValueMemberS)
	if !ok || id.Value != "m1" {
		t.Errorf("expected ID attribute with value m1, got %v", item["ID"])
	}
}
