package watchdog

import "testing"

func TestLedgerCapacity(t *testing.T) {
	l := NewLedger(5)
	for i := 0; i < 8; i++ {
		l.Append(Alert{Type: TypeLowPeerCount, Severity: SeverityMedium})
	}

	if l.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", l.Len())
	}

	// Retained alerts are exactly the 5 most recently appended, newest first.
	recent := l.Recent(0)
	if len(recent) != 5 {
		t.Fatalf("len(Recent) = %d, want 5", len(recent))
	}
	wantIDs := []int64{8, 7, 6, 5, 4}
	for i, a := range recent {
		if a.ID != wantIDs[i] {
			t.Errorf("Recent[%d].ID = %d, want %d", i, a.ID, wantIDs[i])
		}
	}
}

func TestLedgerEvictsUnacknowledged(t *testing.T) {
	l := NewLedger(2)
	first := l.Append(Alert{Type: TypeMempoolFlood, Severity: SeverityHigh})
	l.Append(Alert{Type: TypeMempoolFlood, Severity: SeverityHigh})
	l.Append(Alert{Type: TypeMempoolFlood, Severity: SeverityHigh})

	// The oldest alert is evicted even though it was never acknowledged.
	if l.Acknowledge(first.ID) {
		t.Error("Acknowledge(evicted id) = true, want false")
	}
}

func TestLedgerAcknowledge(t *testing.T) {
	l := NewLedger(10)
	a := l.Append(Alert{Type: TypeHashRateSpike, Severity: SeverityCritical})

	if !l.Acknowledge(a.ID) {
		t.Fatal("Acknowledge(known id) = false, want true")
	}
	if got := l.Recent(1)[0]; !got.Acknowledged {
		t.Error("alert not marked acknowledged")
	}

	// Idempotent: second call still reports found, no further side effects.
	if !l.Acknowledge(a.ID) {
		t.Error("second Acknowledge = false, want true")
	}

	// Unknown id mutates nothing.
	if l.Acknowledge(9999) {
		t.Error("Acknowledge(unknown id) = true, want false")
	}
}

func TestLedgerFiltered(t *testing.T) {
	l := NewLedger(10)
	l.Append(Alert{Type: TypeLowPeerCount, Severity: SeverityMedium})
	crit := l.Append(Alert{Type: TypeHashRateSpike, Severity: SeverityCritical})
	l.Append(Alert{Type: TypeMempoolFlood, Severity: SeverityHigh})
	l.Acknowledge(crit.ID)

	bySeverity := l.Filtered(0, SeverityCritical, nil)
	if len(bySeverity) != 1 || bySeverity[0].ID != crit.ID {
		t.Errorf("Filtered(critical) = %v, want the one critical alert", bySeverity)
	}

	acked := true
	byAck := l.Filtered(0, "", &acked)
	if len(byAck) != 1 || byAck[0].ID != crit.ID {
		t.Errorf("Filtered(acknowledged) = %v, want the acknowledged alert", byAck)
	}

	unacked := false
	if got := l.Filtered(0, "", &unacked); len(got) != 2 {
		t.Errorf("Filtered(unacknowledged) returned %d alerts, want 2", len(got))
	}

	if got := l.Filtered(1, "", nil); len(got) != 1 {
		t.Errorf("Filtered(limit 1) returned %d alerts, want 1", len(got))
	}
}

func TestLedgerHighestUnacked(t *testing.T) {
	l := NewLedger(100)

	// Empty ledger: nothing found.
	if _, found := l.highestUnacked(10); found {
		t.Error("highestUnacked on empty ledger found something")
	}

	// An older MEDIUM plus a newer CRITICAL within the window: CRITICAL wins.
	l.Append(Alert{Type: TypeLowPeerCount, Severity: SeverityMedium})
	l.Append(Alert{Type: TypeHashRateSpike, Severity: SeverityCritical})
	sev, found := l.highestUnacked(10)
	if !found || sev != SeverityCritical {
		t.Errorf("highestUnacked = %v/%v, want CRITICAL/true", sev, found)
	}

	// Acknowledging everything empties the window.
	for _, a := range l.Recent(0) {
		l.Acknowledge(a.ID)
	}
	if _, found := l.highestUnacked(10); found {
		t.Error("highestUnacked after acking all found something")
	}

	// A CRITICAL pushed outside the window by newer MEDIUMs no longer counts.
	l = NewLedger(100)
	l.Append(Alert{Type: TypeHashRateSpike, Severity: SeverityCritical})
	for i := 0; i < 10; i++ {
		l.Append(Alert{Type: TypeLowPeerCount, Severity: SeverityMedium})
	}
	sev, found = l.highestUnacked(10)
	if !found || sev != SeverityMedium {
		t.Errorf("highestUnacked = %v/%v, want MEDIUM/true", sev, found)
	}
}
