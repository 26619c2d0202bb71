package ws

import "testing"

func TestHubAddAndRemoveRoomClient(t *testing.T) {
	hub := NewHub()

	hub.AddRoomClient("c1", nil, ConnInfo{ConnID: "conn-1"})
	if len(hub.roomClients) != 1 {
		t.Fatalf("expected room to be created")
	}

	hub.RemoveRoomClient("c1", nil)
	if len(hub.roomClients) != 0 {
		t.Fatalf("expected room to be removed")
	}
}

func TestHubAddAndRemoveListClient(t *testing.T) {
	hub := NewHub()

	hub.AddListClient(nil, ConnInfo{ConnID: "conn-2"})
	if len(hub.listClients) != 1 {
		t.Fatalf("expected list client to be registered")
	}

	hub.RemoveListClient(nil)
	if len(hub.listClients) != 0 {
		t.Fatalf("expected list client to be removed")
	}
}
