package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/shop-api/internal/domain/order"
)

type createOrderBody struct {
	ShipmentID   string
	DiscountCode string
}

func decodeCreateOrder(data []byte) (createOrderBody, error) {
	var body createOrderBody
	if len(data) == 0 {
		return body, nil
	}
	err := jx.DecodeBytes(data).ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "shipmentId", "discountCode":
			if d.Next() == jx.Null {
				return d.Null()
			}
			v, err := d.Str()
			if err != nil {
				return errors.Wrapf(err, "decode %s", key)
			}
			if string(key) == "shipmentId" {
				body.ShipmentID = v
			} else {
				body.DiscountCode = v
			}
			return nil
		default:
			return d.Skip()
		}
	})
	return body, err
}

func encodeTime(e *jx.Encoder, t time.Time) {
	e.Str(t.UTC().Format(time.RFC3339Nano))
}

func encodeItem(e *jx.Encoder, it order.Item) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(it.ID)
	e.FieldStart("orderId")
	e.Str(it.OrderID)
	e.FieldStart("productId")
	e.Str(it.ProductID)
	e.FieldStart("vendorId")
	e.Str(it.VendorID)
	e.FieldStart("price")
	e.Float64(it.Price.InexactFloat64())
	e.FieldStart("quantity")
	e.Int(it.Quantity)
	e.FieldStart("createdAt")
	encodeTime(e, it.CreatedAt)
	e.ObjEnd()
}

func encodeOrder(e *jx.Encoder, o order.Order) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID)
	e.FieldStart("userId")
	e.Str(o.UserID)
	e.FieldStart("name")
	e.Str(o.Name)
	e.FieldStart("address")
	e.Str(o.Address)
	e.FieldStart("phoneNumber")
	e.Str(o.PhoneNumber)
	e.FieldStart("totalPrice")
	e.Float64(o.TotalPrice.InexactFloat64())
	e.FieldStart("totalProducts")
	e.Int(o.TotalProducts)
	e.FieldStart("status")
	e.Str(string(o.Status))
	if o.DiscountCode != "" {
		e.FieldStart("discountCode")
		e.Str(o.DiscountCode)
	}
	if o.Items != nil {
		e.FieldStart("items")
		e.ArrStart()
		for _, it := range o.Items {
			encodeItem(e, it)
		}
		e.ArrEnd()
	}
	e.FieldStart("createdAt")
	encodeTime(e, o.CreatedAt)
	e.FieldStart("updatedAt")
	encodeTime(e, o.UpdatedAt)
	e.ObjEnd()
}

func encodeOptInt(e *jx.Encoder, v *int) {
	if v == nil {
		e.Null()
		return
	}
	e.Int(*v)
}

func encodePaged[T any](e *jx.Encoder, r *order.PagedResult[T], encodeDoc func(*jx.Encoder, T)) {
	e.ObjStart()
	e.FieldStart("docs")
	e.ArrStart()
	for _, d := range r.Docs {
		encodeDoc(e, d)
	}
	e.ArrEnd()
	e.FieldStart("totalDocs")
	e.Int(r.TotalDocs)
	e.FieldStart("limit")
	e.Int(r.Limit)
	e.FieldStart("page")
	e.Int(r.Page)
	e.FieldStart("totalPages")
	e.Int(r.TotalPages)
	e.FieldStart("hasPrevPage")
	e.Bool(r.HasPrevPage)
	e.FieldStart("hasNextPage")
	e.Bool(r.HasNextPage)
	e.FieldStart("prevPage")
	encodeOptInt(e, r.PrevPage)
	e.FieldStart("nextPage")
	encodeOptInt(e, r.NextPage)
	e.ObjEnd()
}

// writeResult writes {"message"?, "result"} with status. An empty message
// is omitted.
func writeResult(w http.ResponseWriter, status int, message string, result func(*jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	e.ObjStart()
	if message != "" {
		e.FieldStart("message")
		e.Str(message)
	}
	e.FieldStart("result")
	result(e)
	e.ObjEnd()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}
