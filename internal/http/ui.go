package http

import nethttp "net/http"

func dashboardHandler(w nethttp.ResponseWriter, r *nethttp.Request) {
	if r.URL.Path != "/" {
		nethttp.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(nethttp.StatusOK)
	_, _ = w.Write([]byte(dashboardHTML))
}

func faviconHandler(w nethttp.ResponseWriter, _ *nethttp.Request) {
	w.WriteHeader(nethttp.StatusNoContent)
}

const dashboardHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Predictive Maintenance Planner</title>
  <style>
    @import url("https://fonts.googleapis.com/css?family=Open+Sans:300,400,600,700");

    :root {
      --pm-blue: #0e5d8f;
      --pm-blue-2: #0971b2;
      --bg: #f7f7f7;
      --paper: #fff;
      --text: #333;
      --muted: #777;
      --line: #ddd;
      --line-soft: #eee;
      --head: #f0f0f0;
      --ok-bg: #dff0d8;
      --ok-text: #3c763d;
      --warn-bg: #fcf8e3;
      --warn-text: #8a6d3b;
      --bad-bg: #f2dede;
      --bad-text: #a94442;
    }

    * { box-sizing: border-box; }

    body {
      margin: 0;
      background: var(--bg);
      color: var(--text);
      font-family: "Open Sans", "Helvetica Neue", Helvetica, Arial, sans-serif;
      font-size: 14px;
      line-height: 1.42857143;
    }

    header {
      background: linear-gradient(to right, var(--pm-blue) 0, var(--pm-blue-2) 100%);
      border-bottom: 1px solid #0b4e79;
      box-shadow: 0 2px 5px rgba(0, 0, 0, 0.15);
    }

    .container {
      margin-right: auto;
      margin-left: auto;
      padding-left: 15px;
      padding-right: 15px;
      width: 100%;
      max-width: 1480px;
    }

    .header-inner {
      min-height: 64px;
      display: flex;
      align-items: center;
      justify-content: space-between;
      gap: 16px;
    }

    .navbar-brand { color: #fff; font-size: 22px; font-weight: 300; }
    .navbar-brand strong { font-weight: 600; }
    .navbar-note { color: rgba(255, 255, 255, 0.88); font-size: 13px; font-weight: 300; text-align: right; }

    main { padding: 18px 0 32px; }

    .tabs {
      display: flex;
      gap: 8px;
      margin-bottom: 14px;
      border-bottom: 1px solid var(--line);
      padding-bottom: 8px;
    }

    .tab-btn {
      border: 1px solid #c7d7e5;
      background: #f3f8fc;
      color: #0e5d8f;
      padding: 6px 10px;
      font-size: 12px;
      font-weight: 600;
      cursor: pointer;
    }

    .tab-btn.active { background: #0e5d8f; color: #fff; border-color: #0e5d8f; }
    .tab-pane { display: none; }
    .tab-pane.active { display: block; }

    .row { display: flex; flex-wrap: wrap; margin: 0 -8px; }
    .col { padding: 0 8px; width: 100%; }
    @media (min-width: 1080px) {
      .col-list { width: 34%; }
      .col-detail { width: 66%; }
    }

    .panel {
      background: var(--paper);
      border: 1px solid var(--line);
      box-shadow: 0 1px 2px rgba(0, 0, 0, 0.05);
      padding: 14px;
      margin-bottom: 16px;
    }

    h1 { margin: 0 0 12px; font-size: 26px; font-weight: 300; color: #444; }
    h3 {
      margin: 0 0 10px;
      font-size: 15px;
      font-weight: 600;
      color: #444;
      border-bottom: 1px solid var(--line-soft);
      padding-bottom: 6px;
    }

    table { width: 100%; border-collapse: collapse; font-size: 13px; }
    th, td { border-bottom: 1px solid var(--line-soft); padding: 6px 8px; text-align: left; vertical-align: top; }
    th { background: var(--head); font-weight: 600; }
    .mono { font-family: Menlo, Consolas, monospace; font-size: 12px; }
    .muted { color: var(--muted); }

    .pill {
      display: inline-block;
      padding: 1px 8px;
      font-size: 11px;
      font-weight: 600;
      border-radius: 10px;
    }
    .pill.ok { background: var(--ok-bg); color: var(--ok-text); }
    .pill.warn { background: var(--warn-bg); color: var(--warn-text); }
    .pill.bad { background: var(--bad-bg); color: var(--bad-text); }
    .pill.info { background: #d9edf7; color: #31708f; }

    .row-click { cursor: pointer; }
    .row-click:hover td { background: #f3f8fc; }
    tr.selected td { background: #e2eef7; }

    .cards { display: grid; grid-template-columns: repeat(4, 1fr); gap: 10px; margin-bottom: 12px; }
    .card { border: 1px solid var(--line); padding: 10px 12px; background: #fcfcfc; }
    .card .card-label { font-size: 11px; color: var(--muted); text-transform: uppercase; }
    .card .card-value { font-size: 20px; font-weight: 600; color: #222; }

    .banner {
      border: 1px solid transparent;
      padding: 10px 12px;
      margin-bottom: 12px;
      font-size: 13px;
      display: none;
    }
    .banner.visible { display: flex; justify-content: space-between; align-items: center; gap: 12px; }
    .banner.warn { background: var(--warn-bg); border-color: #faebcc; color: var(--warn-text); }
    .banner.bad { background: var(--bad-bg); border-color: #ebccd1; color: var(--bad-text); }
    .banner.ok { background: var(--ok-bg); border-color: #d6e9c6; color: var(--ok-text); }
    .banner button { border: none; background: transparent; cursor: pointer; font-weight: 700; color: inherit; }

    .toolbar { display: flex; gap: 8px; align-items: center; margin-bottom: 10px; flex-wrap: wrap; }
    .toolbar label { font-size: 12px; color: var(--muted); }
    select, input, textarea {
      border: 1px solid var(--line);
      padding: 5px 7px;
      font-size: 13px;
      font-family: inherit;
      background: #fff;
    }

    button.action {
      border: 1px solid #0e5d8f;
      background: #0e5d8f;
      color: #fff;
      padding: 6px 12px;
      font-size: 12px;
      font-weight: 600;
      cursor: pointer;
    }
    button.action[disabled] { opacity: 0.6; cursor: default; }
    button.secondary { border: 1px solid #c7d7e5; background: #f3f8fc; color: #0e5d8f; }

    canvas { width: 100%; height: 240px; border: 1px solid var(--line-soft); background: #fff; }

    dialog {
      border: 1px solid var(--line);
      box-shadow: 0 4px 18px rgba(0, 0, 0, 0.25);
      padding: 0;
      width: 460px;
      max-width: 92vw;
    }
    dialog::backdrop { background: rgba(0, 0, 0, 0.35); }
    .dialog-head { background: var(--head); padding: 10px 14px; font-weight: 600; }
    .dialog-body { padding: 14px; }
    .form-row { margin-bottom: 10px; }
    .form-row label { display: block; font-size: 12px; color: var(--muted); margin-bottom: 3px; }
    .form-row input, .form-row select, .form-row textarea { width: 100%; }
    .dialog-actions { display: flex; justify-content: flex-end; gap: 8px; padding: 10px 14px; border-top: 1px solid var(--line-soft); }
  </style>
</head>
<body>
  <header>
    <div class="container header-inner">
      <div class="navbar-brand">Predictive <strong>Maintenance Planner</strong></div>
      <div class="navbar-note">equipment health, sensor history and maintenance scheduling<br /><span id="live-indicator" class="muted">live feed: checking...</span></div>
    </div>
  </header>

  <main>
    <div class="container">
      <div class="tabs">
        <button class="tab-btn active" data-tab="equipment">Equipment</button>
        <button class="tab-btn" data-tab="services">Services</button>
        <button class="tab-btn" data-tab="settings">Settings</button>
      </div>

      <div id="tab-equipment" class="tab-pane active">
        <div id="equipment-error" class="banner bad"><span></span><button data-dismiss="equipment-error">&times;</button></div>

        <div class="row">
          <div class="col col-list">
            <div class="panel">
              <h3>Machines</h3>
              <table>
                <thead><tr><th>ID</th><th>Name</th><th>Location</th></tr></thead>
                <tbody id="equipment-body"><tr><td colspan="3" class="muted">Loading...</td></tr></tbody>
              </table>
            </div>
          </div>

          <div class="col col-detail">
            <div class="panel">
              <h3 id="detail-title">Select a machine</h3>

              <div class="cards">
                <div class="card"><div class="card-label">MTBF (h)</div><div class="card-value" id="card-mtbf">-</div></div>
                <div class="card"><div class="card-label">MTTR (h)</div><div class="card-value" id="card-mttr">-</div></div>
                <div class="card"><div class="card-label">Availability</div><div class="card-value" id="card-availability">-</div></div>
                <div class="card"><div class="card-label">Maint. cost YTD</div><div class="card-value" id="card-cost">-</div></div>
              </div>
              <div id="metrics-error" class="banner warn"><span></span><button data-dismiss="metrics-error">&times;</button></div>

              <div id="recommendation-banner" class="banner warn">
                <span id="recommendation-text"></span>
                <span>
                  <button class="action" id="recommendation-schedule">Schedule</button>
                  <button data-dismiss="recommendation-banner">&times;</button>
                </span>
              </div>
              <div id="prediction-error" class="banner bad"><span></span><button data-dismiss="prediction-error">&times;</button></div>

              <div class="toolbar">
                <label for="sensor-select">Sensor</label>
                <select id="sensor-select">
                  <option value="temperature">temperature</option>
                  <option value="vibration">vibration</option>
                  <option value="pressure">pressure</option>
                  <option value="rotation_speed">rotation_speed</option>
                  <option value="voltage">voltage</option>
                  <option value="oil_level">oil_level</option>
                </select>
                <span class="muted" id="chart-source"></span>
              </div>
              <canvas id="sensor-chart" width="860" height="240"></canvas>
              <div id="chart-error" class="banner bad"><span></span><button data-dismiss="chart-error">&times;</button></div>
            </div>

            <div class="panel">
              <h3>Maintenance history
                <button class="action" id="open-schedule" style="float: right;">Schedule maintenance</button>
              </h3>
              <div id="schedule-success" class="banner ok"><span></span><button data-dismiss="schedule-success">&times;</button></div>
              <div id="history-error" class="banner bad"><span></span><button data-dismiss="history-error">&times;</button></div>
              <table>
                <thead><tr><th>Date</th><th>Type</th><th>Description</th><th>Technician</th><th>Status</th><th>Priority</th><th>Cost</th></tr></thead>
                <tbody id="history-body"><tr><td colspan="7" class="muted">Select a machine.</td></tr></tbody>
              </table>
            </div>
          </div>
        </div>
      </div>

      <div id="tab-services" class="tab-pane">
        <div class="panel">
          <h3>Service status</h3>
          <table>
            <thead><tr><th>Service</th><th>Status</th><th>Detail</th></tr></thead>
            <tbody id="services-body"><tr><td colspan="3" class="muted">Loading...</td></tr></tbody>
          </table>
        </div>
        <div class="panel">
          <h3>App metrics</h3>
          <table>
            <thead><tr><th>Method</th><th>Path</th><th>Status</th><th>Count</th><th>Avg ms</th></tr></thead>
            <tbody id="appmetrics-body"><tr><td colspan="5" class="muted">Loading...</td></tr></tbody>
          </table>
        </div>
      </div>

      <div id="tab-settings" class="tab-pane">
        <div id="settings-error" class="banner bad"><span></span><button data-dismiss="settings-error">&times;</button></div>
        <div id="settings-success" class="banner ok"><span></span><button data-dismiss="settings-success">&times;</button></div>
        <div class="row">
          <div class="col col-list">
            <div class="panel">
              <h3>Alert thresholds</h3>
              <table>
                <thead><tr><th>Sensor</th><th>Warning</th><th>Critical</th></tr></thead>
                <tbody id="thresholds-body"><tr><td colspan="3" class="muted">Loading...</td></tr></tbody>
              </table>
              <div style="margin-top: 10px;"><button class="action" id="save-thresholds">Save thresholds</button></div>
            </div>
          </div>
          <div class="col col-detail">
            <div class="panel">
              <h3>Notifications</h3>
              <div class="form-row"><label><input type="checkbox" id="nf-email-enabled" /> Email notifications</label></div>
              <div class="form-row"><label for="nf-email">Email address</label><input id="nf-email" type="email" /></div>
              <div class="form-row"><label><input type="checkbox" id="nf-sms-enabled" /> SMS notifications</label></div>
              <div class="form-row"><label for="nf-phone">Phone number</label><input id="nf-phone" type="tel" /></div>
              <div class="form-row">
                <label><input type="checkbox" id="nf-critical" /> Notify on critical alerts</label>
                <label><input type="checkbox" id="nf-warning" /> Notify on warnings</label>
                <label><input type="checkbox" id="nf-maintenance" /> Notify on scheduled maintenance</label>
              </div>
              <button class="action" id="save-notifications">Save notifications</button>
            </div>
          </div>
        </div>
      </div>
    </div>
  </main>

  <dialog id="schedule-dialog">
    <div class="dialog-head">Schedule maintenance</div>
    <div class="dialog-body">
      <div id="schedule-error" class="banner bad"><span></span><button data-dismiss="schedule-error">&times;</button></div>
      <div class="form-row"><label for="sd-equipment">Equipment</label><input id="sd-equipment" readonly /></div>
      <div class="form-row"><label for="sd-date">Date</label><input id="sd-date" type="date" /></div>
      <div class="form-row">
        <label for="sd-type">Type</label>
        <select id="sd-type">
          <option value="preventive">preventive</option>
          <option value="corrective">corrective</option>
          <option value="predictive">predictive</option>
          <option value="condition-based">condition-based</option>
        </select>
      </div>
      <div class="form-row">
        <label for="sd-priority">Priority</label>
        <select id="sd-priority">
          <option value="low">low</option>
          <option value="medium">medium</option>
          <option value="high">high</option>
          <option value="critical">critical</option>
        </select>
      </div>
      <div class="form-row"><label for="sd-duration">Duration (minutes)</label><input id="sd-duration" type="number" min="1" value="120" /></div>
      <div class="form-row"><label for="sd-technician">Technician</label><input id="sd-technician" /></div>
      <div class="form-row"><label for="sd-description">Description</label><textarea id="sd-description" rows="2"></textarea></div>
    </div>
    <div class="dialog-actions">
      <button class="action secondary" id="sd-cancel">Cancel</button>
      <button class="action" id="sd-submit">Schedule</button>
    </div>
  </dialog>

  <script>
    const text = (id, v) => document.getElementById(id).textContent = v;
    const q = (s) => document.querySelector(s);
    const qq = (s) => Array.from(document.querySelectorAll(s));

    async function getJSON(url) {
      const r = await fetch(url);
      const body = await r.json().catch(() => ({}));
      if (!r.ok) throw new Error(body.error || (url + " -> " + r.status));
      return body;
    }

    async function postJSON(url, payload) {
      const r = await fetch(url, {
        method: 'POST',
        headers: { 'Content-Type': 'application/json' },
        body: JSON.stringify(payload),
      });
      const body = await r.json().catch(() => ({}));
      if (!r.ok) throw new Error(body.error || (url + " -> " + r.status));
      return body;
    }

    function showBanner(id, msg) {
      const el = document.getElementById(id);
      el.querySelector('span').textContent = msg;
      el.classList.add('visible');
    }

    function hideBanner(id) {
      document.getElementById(id).classList.remove('visible');
    }

    function esc(v) {
      const d = document.createElement('div');
      d.textContent = v == null ? '' : String(v);
      return d.innerHTML;
    }

    function fmtNum(v, digits) {
      const n = Number(v);
      if (v == null || !Number.isFinite(n)) return '-';
      return n.toFixed(digits == null ? 1 : digits);
    }

    function priorityPill(p) {
      const cls = p === 'critical' ? 'bad' : (p === 'high' ? 'warn' : 'info');
      return '<span class="pill ' + cls + '">' + esc(p || 'medium') + '</span>';
    }

    function statusPill(s) {
      const cls = s === 'scheduled' ? 'info' : (s === 'completed' ? 'ok' : 'warn');
      return '<span class="pill ' + cls + '">' + esc(s || '-') + '</span>';
    }

    // Selection token: every machine selection bumps the token, and every
    // per-machine response is dropped unless its token is still current.
    let selectionToken = 0;
    let selectedMachine = null;
    let currentPrediction = null;

    function switchTab(tab) {
      qq('.tab-btn[data-tab]').forEach((b) => b.classList.toggle('active', b.dataset.tab === tab));
      q('#tab-equipment').classList.toggle('active', tab === 'equipment');
      q('#tab-services').classList.toggle('active', tab === 'services');
      q('#tab-settings').classList.toggle('active', tab === 'settings');
      if (tab === 'services') loadServices();
      if (tab === 'settings') loadSettings();
    }

    async function loadEquipment() {
      try {
        const res = await getJSON('/api/v1/equipment');
        hideBanner('equipment-error');
        const body = q('#equipment-body');
        body.innerHTML = '';
        (res.data || []).forEach((m) => {
          const tr = document.createElement('tr');
          tr.className = 'row-click' + (selectedMachine === m.equipment_id ? ' selected' : '');
          tr.innerHTML =
            '<td class="mono">' + esc(m.equipment_id) + '</td>' +
            '<td>' + esc(m.name || '-') + '</td>' +
            '<td>' + esc(m.location || '-') + '</td>';
          tr.onclick = () => selectMachine(m.equipment_id, m.name, tr);
          body.appendChild(tr);
        });
        if (!body.children.length) body.innerHTML = '<tr><td colspan="3" class="muted">No machines found.</td></tr>';
      } catch (err) {
        showBanner('equipment-error', 'Failed to load equipment list: ' + err.message);
      }
    }

    function selectMachine(id, name, rowEl) {
      selectedMachine = id;
      selectionToken++;
      const token = selectionToken;

      qq('#equipment-body tr').forEach((tr) => tr.classList.remove('selected'));
      if (rowEl) rowEl.classList.add('selected');
      text('detail-title', (name || id) + ' (' + id + ')');
      hideBanner('recommendation-banner');
      hideBanner('prediction-error');
      hideBanner('chart-error');
      hideBanner('history-error');
      hideBanner('metrics-error');
      currentPrediction = null;

      loadChart(token);
      loadHistory(token);
      loadMetrics(token);
      loadPrediction(token);
    }

    async function loadChart(token) {
      if (!selectedMachine) return;
      const sensor = q('#sensor-select').value;
      try {
        const res = await getJSON('/api/v1/equipment/' + encodeURIComponent(selectedMachine) + '/chart?sensor=' + encodeURIComponent(sensor));
        if (token !== selectionToken) return;
        hideBanner('chart-error');
        const series = res.data || {};
        text('chart-source', 'source: ' + (res.meta?.source || '-'));
        drawSeries(q('#sensor-chart'), series.points || [], series.threshold);
      } catch (err) {
        if (token !== selectionToken) return;
        showBanner('chart-error', 'Failed to load sensor chart: ' + err.message);
      }
    }

    async function loadHistory(token) {
      if (!selectedMachine) return;
      try {
        const res = await getJSON('/api/v1/equipment/' + encodeURIComponent(selectedMachine) + '/history');
        if (token !== selectionToken) return;
        hideBanner('history-error');
        renderHistory(res.data || []);
      } catch (err) {
        if (token !== selectionToken) return;
        showBanner('history-error', 'Failed to load maintenance history: ' + err.message);
      }
    }

    function renderHistory(records) {
      const body = q('#history-body');
      body.innerHTML = '';
      records.forEach((rec) => {
        const tr = document.createElement('tr');
        tr.innerHTML =
          '<td class="mono">' + esc(rec.maintenance_date || '-') + '</td>' +
          '<td>' + esc(rec.maintenance_type || '-') + '</td>' +
          '<td>' + esc(rec.description || '') + '</td>' +
          '<td>' + esc(rec.technician || 'Not assigned') + '</td>' +
          '<td>' + statusPill(rec.status) + '</td>' +
          '<td>' + priorityPill(rec.priority) + '</td>' +
          '<td>' + (rec.cost == null ? '-' : fmtNum(rec.cost, 2)) + '</td>';
        body.appendChild(tr);
      });
      if (!body.children.length) body.innerHTML = '<tr><td colspan="7" class="muted">No maintenance records.</td></tr>';
    }

    async function loadMetrics(token) {
      if (!selectedMachine) return;
      try {
        const res = await getJSON('/api/v1/equipment/' + encodeURIComponent(selectedMachine) + '/metrics');
        if (token !== selectionToken) return;
        const d = res.data || {};
        text('card-mtbf', fmtNum(d.mtbf));
        text('card-mttr', fmtNum(d.mttr));
        text('card-availability', d.availability == null ? '-' : fmtNum(d.availability, 1) + '%');
        text('card-cost', d.maintenance_cost_ytd == null ? '-' : '$' + fmtNum(d.maintenance_cost_ytd, 0));
        if (res.meta && res.meta.available === false) {
          showBanner('metrics-error', 'Reliability metrics unavailable.');
        } else {
          hideBanner('metrics-error');
        }
      } catch (err) {
        if (token !== selectionToken) return;
        ['card-mtbf', 'card-mttr', 'card-availability', 'card-cost'].forEach((id) => text(id, '-'));
        showBanner('metrics-error', 'Failed to load metrics: ' + err.message);
      }
    }

    async function loadPrediction(token) {
      if (!selectedMachine) return;
      try {
        const res = await getJSON('/api/v1/equipment/' + encodeURIComponent(selectedMachine) + '/prediction');
        if (token !== selectionToken) return;
        hideBanner('prediction-error');
        const d = res.data || {};
        if (!d.recommended) {
          hideBanner('recommendation-banner');
          currentPrediction = null;
          return;
        }
        currentPrediction = d;
        const pred = d.prediction || {};
        const prob = Number(pred.failure_probability || 0);
        showBanner('recommendation-banner',
          'Maintenance recommended: failure probability ' + (prob * 100).toFixed(0) + '%, suggested date ' +
          (d.suggested_date || '-') + ', priority ' + (d.priority || 'medium') + '.');
      } catch (err) {
        if (token !== selectionToken) return;
        hideBanner('recommendation-banner');
        showBanner('prediction-error', 'Failed to run prediction: ' + err.message);
      }
    }

    function drawSeries(canvas, points, threshold) {
      const c = canvas.getContext('2d');
      const w = canvas.width, h = canvas.height;
      c.clearRect(0, 0, w, h);
      c.fillStyle = '#fff';
      c.fillRect(0, 0, w, h);

      const pad = 28;
      const values = points.map((p) => Number(p.value) || 0);
      const max = Math.max(1, threshold || 0, ...values) * 1.1;

      c.strokeStyle = '#eee';
      for (let i = 0; i < 4; i++) {
        const y = pad + ((h - pad * 2) * i / 3);
        c.beginPath();
        c.moveTo(pad, y);
        c.lineTo(w - pad, y);
        c.stroke();
      }

      if (Number.isFinite(threshold)) {
        const ty = h - pad - ((h - pad * 2) * (threshold / max));
        c.strokeStyle = '#cb4b16';
        c.setLineDash([6, 4]);
        c.beginPath();
        c.moveTo(pad, ty);
        c.lineTo(w - pad, ty);
        c.stroke();
        c.setLineDash([]);
        c.fillStyle = '#cb4b16';
        c.font = '11px sans-serif';
        c.fillText('threshold ' + threshold, w - pad - 90, ty - 4);
      }

      if (!points.length) {
        c.fillStyle = '#777';
        c.font = '13px sans-serif';
        c.fillText('No sensor data.', pad, h / 2);
        return;
      }

      c.strokeStyle = '#0e5d8f';
      c.lineWidth = 2;
      c.beginPath();
      points.forEach((p, i) => {
        const x = pad + ((w - pad * 2) * (points.length === 1 ? 0 : i / (points.length - 1)));
        const y = h - pad - ((h - pad * 2) * ((Number(p.value) || 0) / max));
        if (i === 0) c.moveTo(x, y); else c.lineTo(x, y);
      });
      c.stroke();

      c.fillStyle = '#777';
      c.font = '10px sans-serif';
      const step = Math.max(1, Math.floor(points.length / 8));
      points.forEach((p, i) => {
        if (i % step !== 0) return;
        const x = pad + ((w - pad * 2) * (points.length === 1 ? 0 : i / (points.length - 1)));
        c.fillText(String(p.label || ''), Math.min(x, w - pad - 40), h - 8);
      });
    }

    // Scheduling dialog.

    function tomorrowISO() {
      return new Date(Date.now() + 86400000).toISOString().slice(0, 10);
    }

    function openScheduleDialog() {
      if (!selectedMachine) {
        showBanner('history-error', 'Select a machine before scheduling maintenance.');
        return;
      }
      hideBanner('schedule-error');
      q('#sd-equipment').value = selectedMachine;
      q('#sd-date').value = (currentPrediction && currentPrediction.suggested_date) || tomorrowISO();
      q('#sd-type').value = (currentPrediction && currentPrediction.maintenance_type) || 'preventive';
      q('#sd-priority').value = (currentPrediction && currentPrediction.priority) || 'medium';
      q('#sd-duration').value = (currentPrediction && currentPrediction.duration_minutes) || 120;
      q('#schedule-dialog').showModal();
    }

    async function submitSchedule() {
      const payload = {
        equipment_id: q('#sd-equipment').value.trim(),
        maintenance_date: q('#sd-date').value.trim(),
        maintenance_type: q('#sd-type').value.trim(),
        priority: q('#sd-priority').value,
        duration_minutes: Number(q('#sd-duration').value) || 0,
        technician: q('#sd-technician').value.trim(),
        description: q('#sd-description').value.trim(),
      };
      if (!payload.equipment_id || !payload.maintenance_date || !payload.maintenance_type) {
        showBanner('schedule-error', 'Missing required fields: equipment, date and type.');
        return;
      }

      const btn = q('#sd-submit');
      btn.disabled = true;
      try {
        const res = await postJSON('/api/v1/maintenance/schedule', payload);
        q('#schedule-dialog').close();
        showBanner('schedule-success', 'Maintenance scheduled for ' + payload.maintenance_date + '.');
        setTimeout(() => hideBanner('schedule-success'), 3000);
        if ((res.data || {}).history && payload.equipment_id === selectedMachine) {
          renderHistory(res.data.history);
        } else {
          loadHistory(selectionToken);
        }
      } catch (err) {
        // Keep the dialog open so the operator can fix the form and retry.
        showBanner('schedule-error', err.message);
      } finally {
        btn.disabled = false;
      }
    }

    // Services tab.

    async function loadServices() {
      try {
        const [status, appMetrics] = await Promise.all([
          getJSON('/api/v1/status/services'),
          getJSON('/api/v1/metrics/app'),
        ]);

        const body = q('#services-body');
        body.innerHTML = '';
        const services = status.services || {};
        Object.keys(services).sort().forEach((name) => {
          const s = services[name];
          const ok = !!s.ok;
          const detail = s.error || (s.ping_ms != null ? 'ping ' + s.ping_ms + 'ms' : (s.stats ? JSON.stringify(s.stats) : (s.broker || '')));
          const tr = document.createElement('tr');
          tr.innerHTML =
            '<td>' + esc(name) + '</td>' +
            '<td><span class="pill ' + (ok ? 'ok' : (s.enabled ? 'bad' : 'warn')) + '">' + (ok ? 'ok' : (s.enabled ? 'down' : 'disabled')) + '</span></td>' +
            '<td class="mono">' + esc(detail) + '</td>';
          body.appendChild(tr);
        });

        const mBody = q('#appmetrics-body');
        mBody.innerHTML = '';
        ((appMetrics.data || {}).top_http_slowest_avg_ms || []).forEach((row) => {
          const tr = document.createElement('tr');
          tr.innerHTML =
            '<td>' + esc(row.method) + '</td>' +
            '<td class="mono">' + esc(row.path) + '</td>' +
            '<td>' + esc(row.status) + '</td>' +
            '<td>' + esc(row.count) + '</td>' +
            '<td>' + fmtNum(row.avg_ms, 2) + '</td>';
          mBody.appendChild(tr);
        });
        if (!mBody.children.length) mBody.innerHTML = '<tr><td colspan="5" class="muted">No traffic yet.</td></tr>';
      } catch (err) {
        console.error(err);
      }
    }

    // Settings tab.

    const settingsSensors = ['temperature', 'vibration', 'pressure', 'oil_level'];

    async function loadSettings() {
      try {
        const [thresholds, notifications] = await Promise.all([
          getJSON('/api/v1/settings/alert-thresholds'),
          getJSON('/api/v1/settings/notifications'),
        ]);
        hideBanner('settings-error');

        const body = q('#thresholds-body');
        body.innerHTML = '';
        const data = thresholds.data || {};
        const sensors = Array.from(new Set([...settingsSensors, ...Object.keys(data)])).sort();
        sensors.forEach((sensor) => {
          const pair = data[sensor] || {};
          const tr = document.createElement('tr');
          tr.setAttribute('data-sensor', sensor);
          tr.innerHTML =
            '<td>' + esc(sensor) + '</td>' +
            '<td><input type="number" step="0.1" class="th-warning" value="' + esc(pair.warning != null ? pair.warning : '') + '" /></td>' +
            '<td><input type="number" step="0.1" class="th-critical" value="' + esc(pair.critical != null ? pair.critical : '') + '" /></td>';
          body.appendChild(tr);
        });

        const nf = notifications.data || {};
        q('#nf-email-enabled').checked = !!nf.email_enabled;
        q('#nf-email').value = nf.email_address || '';
        q('#nf-sms-enabled').checked = !!nf.sms_enabled;
        q('#nf-phone').value = nf.phone_number || '';
        q('#nf-critical').checked = !!nf.notify_critical;
        q('#nf-warning').checked = !!nf.notify_warning;
        q('#nf-maintenance').checked = !!nf.notify_maintenance;
      } catch (err) {
        showBanner('settings-error', 'Failed to load settings: ' + err.message);
      }
    }

    async function saveThresholds() {
      const payload = {};
      qq('#thresholds-body tr').forEach((tr) => {
        const sensor = tr.getAttribute('data-sensor');
        const warning = Number(tr.querySelector('.th-warning').value);
        const critical = Number(tr.querySelector('.th-critical').value);
        if (sensor && Number.isFinite(warning) && Number.isFinite(critical)) {
          payload[sensor] = { warning: warning, critical: critical };
        }
      });
      try {
        await postJSON('/api/v1/settings/alert-thresholds', payload);
        hideBanner('settings-error');
        showBanner('settings-success', 'Alert thresholds saved.');
        setTimeout(() => hideBanner('settings-success'), 3000);
      } catch (err) {
        showBanner('settings-error', 'Failed to save thresholds: ' + err.message);
      }
    }

    async function saveNotifications() {
      const payload = {
        email_enabled: q('#nf-email-enabled').checked,
        email_address: q('#nf-email').value.trim(),
        sms_enabled: q('#nf-sms-enabled').checked,
        phone_number: q('#nf-phone').value.trim(),
        notify_critical: q('#nf-critical').checked,
        notify_warning: q('#nf-warning').checked,
        notify_maintenance: q('#nf-maintenance').checked,
      };
      try {
        await postJSON('/api/v1/settings/notifications', payload);
        hideBanner('settings-error');
        showBanner('settings-success', 'Notification settings saved.');
        setTimeout(() => hideBanner('settings-success'), 3000);
      } catch (err) {
        showBanner('settings-error', 'Failed to save notifications: ' + err.message);
      }
    }

    // Live feed over websocket, optional.

    function connectLiveFeed() {
      const proto = location.protocol === 'https:' ? 'wss:' : 'ws:';
      let ws;
      try {
        ws = new WebSocket(proto + '//' + location.host + '/api/v1/live/stream');
      } catch (err) {
        text('live-indicator', 'live feed: unavailable');
        return;
      }
      ws.onopen = () => text('live-indicator', 'live feed: connected');
      ws.onclose = () => {
        text('live-indicator', 'live feed: disconnected');
        setTimeout(connectLiveFeed, 10000);
      };
      ws.onerror = () => ws.close();
      ws.onmessage = (ev) => {
        try {
          const reading = JSON.parse(ev.data);
          if (reading.equipment_id && reading.equipment_id === selectedMachine) {
            loadChart(selectionToken);
          }
        } catch (err) { /* ignore malformed frames */ }
      };
    }

    qq('.tab-btn[data-tab]').forEach((btn) => {
      btn.addEventListener('click', () => switchTab(btn.dataset.tab));
    });
    qq('[data-dismiss]').forEach((btn) => {
      btn.addEventListener('click', () => hideBanner(btn.getAttribute('data-dismiss')));
    });
    q('#sensor-select').addEventListener('change', () => loadChart(selectionToken));
    q('#open-schedule').addEventListener('click', openScheduleDialog);
    q('#recommendation-schedule').addEventListener('click', openScheduleDialog);
    q('#sd-cancel').addEventListener('click', () => q('#schedule-dialog').close());
    q('#sd-submit').addEventListener('click', submitSchedule);
    q('#save-thresholds').addEventListener('click', saveThresholds);
    q('#save-notifications').addEventListener('click', saveNotifications);

    loadEquipment();
    connectLiveFeed();
    setInterval(loadEquipment, 30000);
    setInterval(() => {
      if (q('#tab-services').classList.contains('active')) loadServices();
    }, 30000);
  </script>
</body>
</html>
`
