package timebase

// Interval is the half-open range [Begin, End) of quantities in unit U.
// An interval is empty unless Begin < End. All empty intervals are equal.
type Interval[U Unit] struct {
	Begin Quantity[U] // included
	End   Quantity[U] // excluded
}

// Span returns [begin, begin+length) with both bounds at begin's rate.
func Span[U Unit](begin Quantity[U], length int64) (Interval[U], error) {
	end, err := begin.Offset(length)
	if err != nil {
		return Interval[U]{}, err
	}
	return Interval[U]{Begin: begin, End: end}, nil
}

// Empty reports whether the interval contains nothing.
func (i Interval[U]) Empty() bool {
	return !i.Begin.Less(i.End)
}

// Contains reports whether Begin <= q < End.
func (i Interval[U]) Contains(q Quantity[U]) bool {
	if !q.Valid() {
		return false
	}
	return !q.Less(i.Begin) && q.Less(i.End)
}

// Includes reports whether o lies entirely within i.
// An empty interval is included in every interval.
func (i Interval[U]) Includes(o Interval[U]) bool {
	if o.Empty() {
		return true
	}
	return i.Contains(o.Begin) && !i.End.Less(o.End)
}

// Shift moves both bounds by d.
func (i Interval[U]) Shift(d Quantity[U]) (Interval[U], error) {
	begin, err := i.Begin.Add(d)
	if err != nil {
		return Interval[U]{}, err
	}
	end, err := i.End.Add(d)
	if err != nil {
		return Interval[U]{}, err
	}
	return Interval[U]{Begin: begin, End: end}, nil
}

// Intersect returns the overlap of i and o, which may be empty.
func (i Interval[U]) Intersect(o Interval[U]) (Interval[U], error) {
	begin, end := i.Begin, i.End
	c, err := o.Begin.Cmp(begin)
	if err != nil {
		return Interval[U]{}, err
	}
	if c > 0 {
		begin = o.Begin
	}
	c, err = o.End.Cmp(end)
	if err != nil {
		return Interval[U]{}, err
	}
	if c < 0 {
		end = o.End
	}
	return Interval[U]{Begin: begin, End: end}, nil
}

// Length returns End - Begin.
func (i Interval[U]) Length() (Quantity[U], error) {
	return i.End.Sub(i.Begin)
}

// Equal reports whether both intervals are empty or have equal bounds.
func (i Interval[U]) Equal(o Interval[U]) bool {
	if i.Empty() && o.Empty() {
		return true
	}
	return i.Begin.Equal(o.Begin) && i.End.Equal(o.End)
}
